package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/TobiSchelling/StockFeed/internal/article"
	"github.com/TobiSchelling/StockFeed/internal/reader"
	"github.com/TobiSchelling/StockFeed/internal/stock"
	"github.com/TobiSchelling/StockFeed/internal/symbols"
)

const sparkWidth = 60

func printArticles(w io.Writer, articles []article.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles match these filters.")
		return
	}
	for i := range articles {
		a := &articles[i]
		fmt.Fprintf(w, "[%s] %s\n", a.SentimentLabel(), a.DisplayTitle())

		meta := []string{a.SourceName()}
		if p := a.Published(); p != "" {
			meta = append(meta, p)
		}
		if imp := a.ImportanceLabel(); imp != "" {
			meta = append(meta, imp+" importance")
		}
		if t := a.TickerList(); len(t) > 0 {
			meta = append(meta, strings.Join(t, ","))
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(meta, " | "))

		snip := a.Snippet()
		for _, b := range snip.Bullets {
			fmt.Fprintf(w, "  - %s\n", b)
		}
		if snip.Text != "" {
			fmt.Fprintf(w, "  %s\n", truncate(reader.PlainText(snip.Text), 200))
		}
		if slug := a.Slug(); slug != "" {
			fmt.Fprintf(w, "  slug: %s\n", slug)
		}
		fmt.Fprintln(w)
	}
}

func printArticle(w io.Writer, a *article.Article, fullText string) {
	if !a.Found() {
		fmt.Fprintln(w, "Article not found.")
		return
	}
	fmt.Fprintln(w, a.DisplayTitle())
	fmt.Fprintf(w, "%s  %s\n", a.SourceName(), a.URL)
	if p := a.Published(); p != "" {
		fmt.Fprintf(w, "Published: %s\n", p)
	}
	if authors := a.AuthorList(); len(authors) > 0 {
		fmt.Fprintf(w, "By: %s\n", strings.Join(authors, ", "))
	}

	sentiment := a.SentimentLabel()
	if a.SentimentScore != nil {
		sentiment += fmt.Sprintf(" (%+.2f)", *a.SentimentScore)
	}
	fmt.Fprintf(w, "Sentiment: %s\n", sentiment)
	if imp := a.ImportanceLabel(); imp != "" {
		fmt.Fprintf(w, "Importance: %s\n", imp)
	}
	if t := a.TickerList(); len(t) > 0 {
		fmt.Fprintf(w, "Tickers: %s (primary %s)\n", strings.Join(t, ", "), a.PrimaryTickerOrFirst())
	}
	if s := a.SectorList(); len(s) > 0 {
		fmt.Fprintf(w, "Sectors: %s\n", strings.Join(s, ", "))
	}
	if k := a.KeywordList(); len(k) > 0 {
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(k, ", "))
	}

	if s := a.ShortSummary(); s != "" {
		fmt.Fprintf(w, "\n%s\n", s)
	}
	for _, b := range a.Snippet().Bullets {
		fmt.Fprintf(w, "  - %s\n", b)
	}
	if ts := a.TickerSentimentBreakdown(); len(ts) > 0 {
		fmt.Fprintln(w, "\nTicker sentiment:")
		for _, t := range ts {
			fmt.Fprintf(w, "  %-6s %+.2f %s\n", t.Ticker, t.Score, t.Label)
		}
	}
	if fullText != "" {
		fmt.Fprintf(w, "\n%s\n", fullText)
	}
}

func printHistory(w io.Writer, symbol string, period stock.Period, h *stock.History) {
	name := symbol
	if h.Ticker != nil && h.Ticker.Name != nil && *h.Ticker.Name != "" {
		name = fmt.Sprintf("%s (%s)", *h.Ticker.Name, symbol)
	}
	fmt.Fprintln(w, name)

	if h.Ticker != nil && h.Ticker.RegularMarketPrice != nil {
		price := fmt.Sprintf("%.2f", *h.Ticker.RegularMarketPrice)
		if h.Ticker.Currency != nil {
			price += " " + *h.Ticker.Currency
		}
		fmt.Fprintf(w, "Price: %s\n", price)
	}
	if c, ok := stock.Change(h); ok {
		fmt.Fprintf(w, "Change: %s since %s\n", c, stock.TimeLabel(period, c.Since.Unix()))
	}
	if len(h.Candles) == 0 {
		fmt.Fprintln(w, "No price history for this period.")
		return
	}
	first, last := h.Candles[0], h.Candles[len(h.Candles)-1]
	fmt.Fprintf(w, "%s  %s  %s\n",
		stock.TimeLabel(period, first.Time),
		stock.TextSparkline(h.Candles, sparkWidth),
		stock.TimeLabel(period, last.Time))
}

func printSymbols(w io.Writer, found []symbols.Symbol, query string) {
	if len(found) == 0 {
		fmt.Fprintln(w, "No matching symbols.")
		return
	}
	for i, s := range found {
		fmt.Fprintf(w, "%3d  %-8s %s\n", i+1, highlight(s.Symbol, query), highlight(s.Name, query))
	}
}

// highlight brackets the parts of text matching query.
func highlight(text, query string) string {
	var b strings.Builder
	for _, seg := range symbols.Highlight(text, query) {
		if seg.Match {
			b.WriteString("[" + seg.Text + "]")
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
