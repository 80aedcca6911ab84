package feed

import (
	"context"
	"net/url"

	"github.com/TobiSchelling/StockFeed/internal/api"
	"github.com/TobiSchelling/StockFeed/internal/article"
)

// Fetcher retrieves articles from the backend.
type Fetcher struct {
	client *api.Client
}

// NewFetcher creates a Fetcher on top of client.
func NewFetcher(client *api.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Articles returns the feed for the filters, optionally scoped to a symbol,
// in server order. Failures are reported to onError and yield an empty list.
func (f *Fetcher) Articles(ctx context.Context, filters Filters, symbol string, onError api.ErrorHandler) []article.Article {
	var result struct {
		Articles []article.Article `json:"articles"`
	}
	if !f.client.Get(ctx, BuildQuery(filters, symbol), &result, onError) {
		return []article.Article{}
	}
	if result.Articles == nil {
		return []article.Article{}
	}
	return result.Articles
}

// Article returns the article for slug, or nil when the backend has none.
// Callers must still check Found before rendering.
func (f *Fetcher) Article(ctx context.Context, slug string, onError api.ErrorHandler) *article.Article {
	var result struct {
		Article *article.Article `json:"article"`
	}
	if !f.client.Get(ctx, "/article/"+url.PathEscape(slug), &result, onError) {
		return nil
	}
	return result.Article
}
