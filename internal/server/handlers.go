package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/StockFeed/internal/article"
	"github.com/TobiSchelling/StockFeed/internal/feed"
	"github.com/TobiSchelling/StockFeed/internal/stock"
	"github.com/TobiSchelling/StockFeed/internal/symbols"
)

var errHistory = errors.New("stock history unavailable")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filtersFromQuery reads the filter bar. Unknown values fall back to defaults.
func (s *Server) filtersFromQuery(r *http.Request) feed.Filters {
	q := r.URL.Query()
	f := feed.DefaultFilters()
	f.TimeRange = s.defaultRange
	f.Search = q.Get("search")
	if tr, err := feed.ParseTimeRange(q.Get("range")); err == nil {
		f.TimeRange = tr
	}
	if sent, err := feed.ParseSentiment(q.Get("sentiment")); err == nil {
		f.Sentiment = sent
	}
	if sector := strings.TrimSpace(q.Get("sector")); sector != "" {
		f.Sector = sector
	}
	switch q.Get("tickers") {
	case "on", "true", "1":
		f.OnlyWithTickers = true
	}
	return f
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	filters := s.filtersFromQuery(r)
	articles := s.feed.Articles(r.Context(), filters, "", reportTo(r))
	s.render(w, http.StatusOK, "index.html", newIndexPage(filters, articles, s.articlePages, s.debounceMS))
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	period, err := stock.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		period = s.defaultPeriod
	}
	onError := reportTo(r)

	var (
		history  *stock.History
		articles []article.Article
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		h, ok := s.stocks.History(ctx, symbol, period, onError)
		if !ok {
			return errHistory
		}
		history = h
		return nil
	})
	g.Go(func() error {
		articles = s.feed.Articles(ctx, feed.DefaultFilters(), symbol, onError)
		return nil
	})

	status := http.StatusOK
	if err := g.Wait(); err != nil {
		history, articles = nil, nil
		status = http.StatusBadGateway
	}
	s.render(w, status, "stock.html", newStockPage(symbol, period, history, articles, s.articlePages))
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	a := s.feed.Article(r.Context(), slug, reportTo(r))
	if !a.Found() {
		s.render(w, http.StatusNotFound, "article.html", articlePage{})
		return
	}

	var fullText string
	if s.extractor != nil && str(a.Content) == "" {
		page, err := s.extractor.Extract(r.Context(), a.URL)
		if err != nil {
			log.Printf("No readable text for %s: %v", a.URL, err)
		} else {
			fullText = page.Text
		}
	}
	s.render(w, http.StatusOK, "article.html", newArticlePage(a, fullText))
}

// symbolResult is one row of the search box, with match segments for the
// symbol and the company name.
type symbolResult struct {
	Symbol      string            `json:"symbol"`
	Name        string            `json:"name"`
	Route       string            `json:"route"`
	SymbolParts []symbols.Segment `json:"symbol_parts"`
	NameParts   []symbols.Segment `json:"name_parts"`
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search")
	found := s.symbols.Search(r.Context(), query, reportTo(r))

	results := make([]symbolResult, 0, len(found))
	for _, sym := range found {
		results = append(results, symbolResult{
			Symbol:      sym.Symbol,
			Name:        sym.Name,
			Route:       symbols.Route(sym),
			SymbolParts: symbols.Highlight(sym.Symbol, query),
			NameParts:   symbols.Highlight(sym.Name, query),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbols": results})
}
