package feed

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/TobiSchelling/StockFeed/internal/article"
)

// Limit caps every feed request.
const Limit = 100

// BuildQuery renders the /articles request path for the filters. Parameters
// keep a fixed order so identical filters always produce identical paths.
func BuildQuery(f Filters, symbol string) string {
	var params []string
	add := func(k, v string) {
		params = append(params, url.QueryEscape(k)+"="+url.QueryEscape(v))
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		add("search", s)
	}
	if f.Sentiment != "" && f.Sentiment != SentimentAll {
		add("sentiment", string(f.Sentiment))
	}
	if f.Sector != "" && f.Sector != SectorAll {
		// The backend splits this on commas.
		add("sectors", f.Sector)
	}
	if f.OnlyWithTickers {
		add("only_with_tickers", "true")
	}
	add("hours", strconv.Itoa(HoursFromRange(f.TimeRange)))
	add("limit", strconv.Itoa(Limit))
	if symbol != "" {
		add("tickers", symbol)
	}

	return "/articles?" + strings.Join(params, "&")
}

// SectorOptions derives the sector choices from the articles on display:
// the "all" sentinel followed by the distinct sectors in lexicographic order.
func SectorOptions(articles []article.Article) []string {
	seen := make(map[string]struct{})
	var sectors []string
	for i := range articles {
		for _, s := range articles[i].Sectors {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			sectors = append(sectors, s)
		}
	}
	slices.Sort(sectors)
	return append([]string{SectorAll}, sectors...)
}
