package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/StockFeed/internal/api"
	"github.com/TobiSchelling/StockFeed/internal/config"
	"github.com/TobiSchelling/StockFeed/internal/feed"
	"github.com/TobiSchelling/StockFeed/internal/reader"
	"github.com/TobiSchelling/StockFeed/internal/stock"
	"github.com/TobiSchelling/StockFeed/internal/symbols"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server renders the news and stock dashboard on top of the backend API.
type Server struct {
	feed      *feed.Fetcher
	stocks    *stock.Fetcher
	symbols   *symbols.Searcher
	extractor *reader.Extractor

	defaultRange  feed.TimeRange
	defaultPeriod stock.Period
	articlePages  bool
	debounceMS    int

	pages  map[string]*template.Template
	router chi.Router
}

// New creates a Server that talks to the backend through client.
func New(cfg *config.Config, client *api.Client) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"join": strings.Join,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so that {{define "content"}}
	// blocks do not collide.
	pageNames := []string{"index.html", "stock.html", "article.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	defaultRange, err := feed.ParseTimeRange(cfg.Feed.TimeRange)
	if err != nil {
		defaultRange = feed.Range24h
	}
	defaultPeriod, err := stock.ParsePeriod(cfg.Stock.Period)
	if err != nil {
		defaultPeriod = stock.DefaultPeriod
	}

	s := &Server{
		feed:          feed.NewFetcher(client),
		stocks:        stock.NewFetcher(client),
		symbols:       symbols.NewSearcher(client, cfg.Symbols.CacheSize),
		defaultRange:  defaultRange,
		defaultPeriod: defaultPeriod,
		articlePages:  cfg.Server.ArticlePages,
		debounceMS:    int(cfg.Debounce() / time.Millisecond),
		pages:         pages,
	}
	if cfg.Server.ExtractContent {
		s.extractor = reader.NewExtractor(cfg.Timeout())
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/stock/{symbol}", s.handleStock)
	if s.articlePages {
		r.Get("/articles/{slug}", s.handleArticle)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/symbols", s.handleSymbols)
	})

	return r
}

// reportTo returns the error handler used for backend calls made while
// serving r.
func reportTo(r *http.Request) api.ErrorHandler {
	return func(err error) {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("Backend request for %s failed: %v", r.URL.Path, err)
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the dashboard on the configured port and shuts down cleanly
// on SIGINT or SIGTERM.
func Serve(cfg *config.Config, client *api.Client) error {
	srv, err := New(cfg, client)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on http://%s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case err := <-errCh:
		return err
	case <-done:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}
