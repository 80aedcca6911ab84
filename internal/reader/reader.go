package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// ErrNoContent is returned when a page has no extractable article body.
var ErrNoContent = errors.New("no extractable content")

// minTextLength filters out pages where readability only found boilerplate.
const minTextLength = 100

// Extractor downloads source pages and pulls out their readable text.
type Extractor struct {
	client *http.Client
}

// NewExtractor creates an Extractor. A zero timeout falls back to 15s.
func NewExtractor(timeout time.Duration) *Extractor {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Page is the readable part of a source page.
type Page struct {
	URL  string
	Text string
}

// Extract fetches articleURL and runs readability over the response.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (*Page, error) {
	parsed, err := url.Parse(articleURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid article url %q", articleURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "StockFeed/1.0 (news dashboard)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", articleURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: articleURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", articleURL, err)
	}

	art, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", articleURL, err)
	}

	text := strings.TrimSpace(art.TextContent)
	if len(text) <= minTextLength {
		return nil, ErrNoContent
	}
	return &Page{URL: articleURL, Text: text}, nil
}

// StatusError reports an HTTP error from the source site.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}
