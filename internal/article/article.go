package article

import (
	"math"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"
)

// Article is a news article as returned by the backend. Only URL identifies
// it; every other field may be missing, and older records carry only the
// legacy Summary and Keyword fields.
type Article struct {
	URL string `json:"url"`

	// Core
	Title       *string  `json:"title,omitempty"`
	Content     *string  `json:"content,omitempty"`
	PublishDate *string  `json:"publish_date,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Source      *string  `json:"source,omitempty"`

	// Legacy
	Summary *string `json:"summary,omitempty"`
	Keyword *string `json:"keyword,omitempty"`

	// Summaries
	SummaryShort    *string  `json:"summary_short,omitempty"`
	SummaryBullets  []string `json:"summary_bullets,omitempty"`
	SummaryExtended *string  `json:"summary_extended,omitempty"`

	EventType          *string `json:"event_type,omitempty"`
	EventTypeReasoning *string `json:"event_type_reasoning,omitempty"`

	ImportanceScore     *float64 `json:"importance_score,omitempty"`
	ImportanceReasoning *string  `json:"importance_reasoning,omitempty"`

	Sentiment          *string  `json:"sentiment,omitempty"`
	SentimentScore     *float64 `json:"sentiment_score,omitempty"`
	SentimentReasoning *string  `json:"sentiment_reasoning,omitempty"`

	TickerSentiments         map[string]float64 `json:"ticker_sentiments,omitempty"`
	TickerSentimentReasoning map[string]string  `json:"ticker_sentiment_reasoning,omitempty"`

	Tickers                []string `json:"tickers,omitempty"`
	PrimaryTicker          *string  `json:"primary_ticker,omitempty"`
	PrimaryTickerReasoning *string  `json:"primary_ticker_reasoning,omitempty"`

	Sectors         []string `json:"sectors,omitempty"`
	SectorReasoning *string  `json:"sector_reasoning,omitempty"`

	Industry          []string `json:"industry,omitempty"`
	IndustryReasoning *string  `json:"industry_reasoning,omitempty"`

	Keywords         []string            `json:"keywords,omitempty"`
	KeywordMap       map[string][]string `json:"keyword_map,omitempty"`
	KeywordReasoning *string             `json:"keyword_reasoning,omitempty"`

	Entities []string `json:"entities,omitempty"`

	MarketSession          *string `json:"market_session,omitempty"`
	MarketSessionReasoning *string `json:"market_session_reasoning,omitempty"`
}

// Snippet is the card preview: either bullets, or a single text.
type Snippet struct {
	Bullets []string
	Text    string
}

// Empty reports whether the snippet has nothing to show.
func (s Snippet) Empty() bool {
	return len(s.Bullets) == 0 && s.Text == ""
}

// TickerSentiment is one row of the per-ticker sentiment breakdown.
type TickerSentiment struct {
	Ticker    string
	Score     float64
	Label     string
	Reasoning string
}

// Found reports whether a fetched record is a real article.
func (a *Article) Found() bool {
	return a != nil && a.URL != ""
}

// Snippet picks the preview: bullets, then short summary, then summary,
// then raw content.
func (a *Article) Snippet() Snippet {
	if bullets := nonEmpty(a.SummaryBullets); len(bullets) > 0 {
		return Snippet{Bullets: bullets}
	}
	return Snippet{Text: firstOf(a.SummaryShort, a.Summary, a.Content)}
}

// ShortSummary is the detail view lead: short summary, then summary.
func (a *Article) ShortSummary() string {
	return firstOf(a.SummaryShort, a.Summary)
}

// DisplayTitle returns the title or a placeholder.
func (a *Article) DisplayTitle() string {
	if t := deref(a.Title); t != "" {
		return t
	}
	return "Untitled article"
}

// SourceName returns the publisher: the source field, else derived from the URL.
func (a *Article) SourceName() string {
	if s := deref(a.Source); s != "" {
		return s
	}
	return SourceFromURL(a.URL)
}

// KeywordList returns keywords, falling back to the legacy single keyword.
func (a *Article) KeywordList() []string {
	if a.Keywords != nil {
		return nonEmpty(a.Keywords)
	}
	if k := deref(a.Keyword); k != "" {
		return []string{k}
	}
	return nil
}

func (a *Article) AuthorList() []string   { return nonEmpty(a.Authors) }
func (a *Article) TickerList() []string   { return nonEmpty(a.Tickers) }
func (a *Article) SectorList() []string   { return nonEmpty(a.Sectors) }
func (a *Article) IndustryList() []string { return nonEmpty(a.Industry) }
func (a *Article) EntityList() []string   { return nonEmpty(a.Entities) }

// PrimaryTickerOrFirst returns the primary ticker, the first ticker, or "Unknown".
func (a *Article) PrimaryTickerOrFirst() string {
	if p := deref(a.PrimaryTicker); p != "" {
		return p
	}
	if t := a.TickerList(); len(t) > 0 {
		return t[0]
	}
	return "Unknown"
}

// Slug is the last path segment of the article URL without ".html".
func (a *Article) Slug() string {
	return ExtractSlug(a.URL)
}

// Published formats the publish date for display, or "" when unparseable.
func (a *Article) Published() string {
	return TimeFromISO(deref(a.PublishDate))
}

// ImportanceLabel buckets the importance score.
func (a *Article) ImportanceLabel() string {
	if a.ImportanceScore == nil || math.IsNaN(*a.ImportanceScore) {
		return ""
	}
	switch s := *a.ImportanceScore; {
	case s >= 0.8:
		return "High"
	case s >= 0.5:
		return "Medium"
	default:
		return "Low"
	}
}

// SentimentLabel normalizes the sentiment; anything unknown is neutral.
func (a *Article) SentimentLabel() string {
	return NormalizeSentiment(deref(a.Sentiment))
}

// TickerSentimentBreakdown lists per-ticker scores, strongest first.
func (a *Article) TickerSentimentBreakdown() []TickerSentiment {
	rows := make([]TickerSentiment, 0, len(a.TickerSentiments))
	for ticker, score := range a.TickerSentiments {
		rows = append(rows, TickerSentiment{
			Ticker:    ticker,
			Score:     score,
			Label:     ScoreSentiment(score),
			Reasoning: a.TickerSentimentReasoning[ticker],
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ai, aj := math.Abs(rows[i].Score), math.Abs(rows[j].Score)
		if ai != aj {
			return ai > aj
		}
		return rows[i].Ticker < rows[j].Ticker
	})
	return rows
}

// HasReasoning reports whether any explanation field is present.
func (a *Article) HasReasoning() bool {
	for _, r := range []*string{
		a.EventTypeReasoning,
		a.ImportanceReasoning,
		a.SentimentReasoning,
		a.PrimaryTickerReasoning,
		a.SectorReasoning,
		a.IndustryReasoning,
		a.KeywordReasoning,
		a.MarketSessionReasoning,
	} {
		if deref(r) != "" {
			return true
		}
	}
	return len(a.TickerSentimentReasoning) > 0
}

// NormalizeSentiment maps a raw label onto positive, negative or neutral.
func NormalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return "positive"
	case "negative":
		return "negative"
	default:
		return "neutral"
	}
}

// ScoreSentiment labels a numeric score with a ±0.1 neutral band.
func ScoreSentiment(score float64) string {
	switch {
	case score > 0.1:
		return "positive"
	case score < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}

// SourceFromURL derives a publisher label such as "REUTERS" from a URL.
func SourceFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "Source"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		label = host
	}
	return strings.ToUpper(label)
}

// ExtractSlug returns the last non-empty path segment with ".html" removed.
func ExtractSlug(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ""
	}
	return strings.TrimSuffix(path.Base(p), ".html")
}

// TimeFromISO formats an ISO timestamp as "Jan 2, 2006, 3:04 PM" in local time.
func TimeFromISO(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Local().Format("Jan 2, 2006, 3:04 PM")
		}
	}
	return ""
}

func firstOf(values ...*string) string {
	for _, v := range values {
		if s := deref(v); s != "" {
			return s
		}
	}
	return ""
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
