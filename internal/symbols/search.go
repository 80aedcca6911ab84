package symbols

import (
	"context"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/TobiSchelling/StockFeed/internal/api"
)

// DefaultCacheSize bounds the number of remembered queries.
const DefaultCacheSize = 128

// Symbol is one ticker search result.
type Symbol struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Searcher looks up tickers by symbol or company name and remembers recent
// answers so repeated queries skip the network.
type Searcher struct {
	client *api.Client
	cache  *lru.Cache[string, []Symbol]
}

// NewSearcher creates a Searcher holding at most size queries.
func NewSearcher(client *api.Client, size int) *Searcher {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, []Symbol](size)
	return &Searcher{client: client, cache: cache}
}

// SearchPath renders the request path. An empty query still asks the
// backend, which answers with its default list.
func SearchPath(query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return "/stock/symbols?"
	}
	return "/stock/symbols?search=" + url.QueryEscape(q)
}

// Search returns matches for query, from cache when possible. Failures are
// reported to onError, yield an empty list, and are not cached. The cache is
// keyed by the query exactly as typed.
func (s *Searcher) Search(ctx context.Context, query string, onError api.ErrorHandler) []Symbol {
	if cached, ok := s.cache.Get(query); ok {
		return cached
	}

	var result struct {
		Symbols []Symbol `json:"symbols"`
	}
	if !s.client.Get(ctx, SearchPath(query), &result, onError) {
		return []Symbol{}
	}

	symbols := result.Symbols
	if symbols == nil {
		symbols = []Symbol{}
	}
	s.cache.Add(query, symbols)
	return symbols
}

// Has reports whether query would be answered from cache.
func (s *Searcher) Has(query string) bool {
	return s.cache.Contains(query)
}

// Cached reports how many queries are remembered.
func (s *Searcher) Cached() int {
	return s.cache.Len()
}

// Route is the dashboard path for a selected symbol.
func Route(sym Symbol) string {
	return "/stock/" + url.PathEscape(sym.Symbol)
}
