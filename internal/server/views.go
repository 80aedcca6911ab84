package server

import (
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strings"

	"github.com/TobiSchelling/StockFeed/internal/article"
	"github.com/TobiSchelling/StockFeed/internal/feed"
	"github.com/TobiSchelling/StockFeed/internal/stock"
)

const (
	chartWidth  = 720
	chartHeight = 240
)

// card is one article in a feed list.
type card struct {
	Title         string
	Href          string
	External      bool
	Source        string
	Published     string
	Sentiment     string
	Importance    string
	PrimaryTicker string
	Tickers       []string
	Sectors       []string
	Snippet       article.Snippet
}

func newCard(a *article.Article, articlePages bool) card {
	c := card{
		Title:      a.DisplayTitle(),
		Href:       a.URL,
		External:   true,
		Source:     a.SourceName(),
		Published:  a.Published(),
		Sentiment:  a.SentimentLabel(),
		Importance: a.ImportanceLabel(),
		Tickers:    a.TickerList(),
		Sectors:    a.SectorList(),
		Snippet:    a.Snippet(),
	}
	if len(c.Tickers) > 0 {
		c.PrimaryTicker = a.PrimaryTickerOrFirst()
	}
	if articlePages {
		if slug := a.Slug(); slug != "" {
			c.Href = "/articles/" + slug
			c.External = false
		}
	}
	return c
}

func newCards(articles []article.Article, articlePages bool) []card {
	cards := make([]card, 0, len(articles))
	for i := range articles {
		cards = append(cards, newCard(&articles[i], articlePages))
	}
	return cards
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type indexPage struct {
	Filters    feed.Filters
	Ranges     []option
	Sentiments []option
	Sectors    []option
	Cards      []card
	DebounceMS int
}

func newIndexPage(f feed.Filters, articles []article.Article, articlePages bool, debounceMS int) indexPage {
	p := indexPage{
		Filters:    f,
		Cards:      newCards(articles, articlePages),
		DebounceMS: debounceMS,
	}
	for _, r := range feed.TimeRanges {
		p.Ranges = append(p.Ranges, option{Value: string(r), Label: rangeLabels[r], Selected: r == f.TimeRange})
	}
	for _, s := range feed.Sentiments {
		p.Sentiments = append(p.Sentiments, option{Value: string(s), Label: titleCase(string(s)), Selected: s == f.Sentiment})
	}

	sectors := feed.SectorOptions(articles)
	// Keep a selected sector visible even when the current page has none of it.
	if f.Sector != feed.SectorAll && !slices.Contains(sectors, f.Sector) {
		sectors = append(sectors, f.Sector)
	}
	for _, s := range sectors {
		label := s
		if s == feed.SectorAll {
			label = "All sectors"
		}
		p.Sectors = append(p.Sectors, option{Value: s, Label: label, Selected: s == f.Sector})
	}
	return p
}

var rangeLabels = map[feed.TimeRange]string{
	feed.Range1h:  "Last hour",
	feed.Range4h:  "Last 4 hours",
	feed.Range24h: "Last 24 hours",
	feed.Range7d:  "Last 7 days",
}

type periodLink struct {
	Label  string
	Href   string
	Active bool
}

type changeView struct {
	Text      string
	Direction string
	Since     string
}

type chartView struct {
	Width, Height int
	Points        string
	StartLabel    string
	EndLabel      string
	Low, High     string
}

type stockPage struct {
	Symbol   string
	Failed   bool
	Name     string
	Exchange string
	Price    string
	Change   *changeView
	Periods  []periodLink
	Chart    *chartView
	Cards    []card
}

func newStockPage(symbol string, period stock.Period, h *stock.History, articles []article.Article, articlePages bool) stockPage {
	p := stockPage{Symbol: symbol, Name: symbol}
	for _, o := range stock.Periods() {
		p.Periods = append(p.Periods, periodLink{
			Label:  o.Label,
			Href:   fmt.Sprintf("/stock/%s?period=%s", url.PathEscape(symbol), o.Value),
			Active: o.Value == period,
		})
	}
	if h == nil {
		p.Failed = true
		return p
	}

	if t := h.Ticker; t != nil {
		if t.Name != nil && *t.Name != "" {
			p.Name = *t.Name
		}
		if t.Exchange != nil {
			p.Exchange = *t.Exchange
		}
		if t.RegularMarketPrice != nil {
			p.Price = fmt.Sprintf("%.2f", *t.RegularMarketPrice)
			if t.Currency != nil && *t.Currency != "" {
				p.Price += " " + *t.Currency
			}
		}
	}
	if c, ok := stock.Change(h); ok {
		p.Change = &changeView{
			Text:      c.String(),
			Direction: c.Direction(),
			Since:     stock.TimeLabel(period, c.Since.Unix()),
		}
	}
	if points := stock.Sparkline(h.Candles, chartWidth, chartHeight); points != "" {
		lo, hi := h.Candles[0].Close, h.Candles[0].Close
		for _, c := range h.Candles {
			lo = min(lo, c.Close)
			hi = max(hi, c.Close)
		}
		p.Chart = &chartView{
			Width:      chartWidth,
			Height:     chartHeight,
			Points:     points,
			StartLabel: stock.TimeLabel(period, h.Candles[0].Time),
			EndLabel:   stock.TimeLabel(period, h.Candles[len(h.Candles)-1].Time),
			Low:        fmt.Sprintf("%.2f", lo),
			High:       fmt.Sprintf("%.2f", hi),
		}
	}
	p.Cards = newCards(articles, articlePages)
	return p
}

type labeled struct {
	Label string
	Text  string
}

type articlePage struct {
	Found         bool
	Title         string
	URL           string
	Source        string
	Published     string
	Authors       []string
	Sentiment     string
	Score         string
	Importance    string
	EventType     string
	MarketSession string
	PrimaryTicker string
	Tickers       []string
	Sectors       []string
	Industries    []string
	Keywords      []string
	KeywordMap    map[string][]string
	Entities      []string
	Summary       string
	Bullets       []string
	Extended      template.HTML
	Body          template.HTML
	FullText      []string
	TickerScores  []article.TickerSentiment
	Reasoning     []labeled
}

func newArticlePage(a *article.Article, fullText string) articlePage {
	if !a.Found() {
		return articlePage{}
	}
	p := articlePage{
		Found:         true,
		Title:         a.DisplayTitle(),
		URL:           a.URL,
		Source:        a.SourceName(),
		Published:     a.Published(),
		Authors:       a.AuthorList(),
		Sentiment:     a.SentimentLabel(),
		Importance:    a.ImportanceLabel(),
		EventType:     str(a.EventType),
		MarketSession: str(a.MarketSession),
		Tickers:       a.TickerList(),
		Sectors:       a.SectorList(),
		Industries:    a.IndustryList(),
		Keywords:      a.KeywordList(),
		KeywordMap:    a.KeywordMap,
		Entities:      a.EntityList(),
		Summary:       a.ShortSummary(),
		Bullets:       a.Snippet().Bullets,
		TickerScores:  a.TickerSentimentBreakdown(),
	}
	if len(p.Tickers) > 0 {
		p.PrimaryTicker = a.PrimaryTickerOrFirst()
	}
	if a.SentimentScore != nil {
		p.Score = fmt.Sprintf("%+.2f", *a.SentimentScore)
	}
	if ext := str(a.SummaryExtended); ext != "" {
		p.Extended = renderMarkdown(ext)
	}
	if body := str(a.Content); body != "" {
		p.Body = renderMarkdown(body)
	} else if fullText != "" {
		p.FullText = paragraphs(fullText)
	}

	for _, r := range []labeled{
		{"Event type", str(a.EventTypeReasoning)},
		{"Importance", str(a.ImportanceReasoning)},
		{"Sentiment", str(a.SentimentReasoning)},
		{"Primary ticker", str(a.PrimaryTickerReasoning)},
		{"Sectors", str(a.SectorReasoning)},
		{"Industry", str(a.IndustryReasoning)},
		{"Keywords", str(a.KeywordReasoning)},
		{"Market session", str(a.MarketSessionReasoning)},
	} {
		if r.Text != "" {
			p.Reasoning = append(p.Reasoning, r)
		}
	}
	return p
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
