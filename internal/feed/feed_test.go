package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TobiSchelling/StockFeed/internal/api"
	"github.com/TobiSchelling/StockFeed/internal/article"
	"github.com/TobiSchelling/StockFeed/internal/latest"
)

func failOnError(t *testing.T) api.ErrorHandler {
	return func(err error) { t.Errorf("unexpected error: %v", err) }
}

func TestHoursFromRange(t *testing.T) {
	want := map[TimeRange]int{Range1h: 1, Range4h: 4, Range24h: 24, Range7d: 168}
	for r, h := range want {
		if got := HoursFromRange(r); got != h {
			t.Errorf("HoursFromRange(%s) = %d, want %d", r, got, h)
		}
	}
}

func TestBuildQueryExample(t *testing.T) {
	f := Filters{
		Search:          "apple",
		TimeRange:       Range4h,
		Sentiment:       SentimentPositive,
		Sector:          SectorAll,
		OnlyWithTickers: true,
	}
	want := "/articles?search=apple&sentiment=positive&only_with_tickers=true&hours=4&limit=100"
	if got := BuildQuery(f, ""); got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQueryDefaultsAndSymbol(t *testing.T) {
	f := DefaultFilters()
	f.Search = "   "
	want := "/articles?hours=24&limit=100&tickers=AAPL"
	if got := BuildQuery(f, "AAPL"); got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQueryTrimsAndEscapes(t *testing.T) {
	f := DefaultFilters()
	f.Search = "  rate cut  "
	f.Sector = "Financial Services"
	f.TimeRange = Range7d
	want := "/articles?search=rate+cut&sectors=Financial+Services&hours=168&limit=100"
	if got := BuildQuery(f, ""); got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestParseTimeRangeAndSentiment(t *testing.T) {
	if r, err := ParseTimeRange(" 7D "); err != nil || r != Range7d {
		t.Errorf("expected 7d, got %q (%v)", r, err)
	}
	if _, err := ParseTimeRange("2h"); err == nil {
		t.Error("expected error for 2h")
	}
	if s, err := ParseSentiment("Negative"); err != nil || s != SentimentNegative {
		t.Errorf("expected negative, got %q (%v)", s, err)
	}
	if _, err := ParseSentiment("bullish"); err == nil {
		t.Error("expected error for bullish")
	}
}

func TestSectorOptions(t *testing.T) {
	articles := []article.Article{
		{URL: "1", Sectors: []string{"Technology", "Energy"}},
		{URL: "2", Sectors: []string{"", "Energy", "Consumer Cyclical"}},
		{URL: "3"},
		{URL: "4", Sectors: []string{"Technology"}},
	}
	want := []string{"all", "Consumer Cyclical", "Energy", "Technology"}
	if got := SectorOptions(articles); !reflect.DeepEqual(got, want) {
		t.Errorf("SectorOptions = %v, want %v", got, want)
	}
	if got := SectorOptions(nil); !reflect.DeepEqual(got, []string{"all"}) {
		t.Errorf("expected only sentinel, got %v", got)
	}
}

func TestFetcherArticles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"articles":[{"url":"https://b.com/2","title":"B"},{"url":"https://a.com/1"}]}`)
	}))
	defer ts.Close()

	f := NewFetcher(api.NewClient(ts.URL, 0))
	got := f.Articles(context.Background(), DefaultFilters(), "", failOnError(t))
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].URL != "https://b.com/2" {
		t.Errorf("expected server order preserved, got %q first", got[0].URL)
	}
}

func TestFetcherArticlesFailureIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	var reported int
	f := NewFetcher(api.NewClient(ts.URL, 0))
	got := f.Articles(context.Background(), DefaultFilters(), "", func(error) { reported++ })
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %v", got)
	}
	if reported != 1 {
		t.Errorf("expected one reported error, got %d", reported)
	}
}

func TestFetcherArticleNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article/missing":
			fmt.Fprint(w, `{"article":null}`)
		case "/article/no-url":
			fmt.Fprint(w, `{"article":{"title":"orphan"}}`)
		default:
			fmt.Fprint(w, `{"article":{"url":"https://a.com/ok","title":"ok"}}`)
		}
	}))
	defer ts.Close()

	f := NewFetcher(api.NewClient(ts.URL, 0))
	ctx := context.Background()

	if a := f.Article(ctx, "missing", failOnError(t)); a.Found() {
		t.Error("expected null article to be not found")
	}
	if a := f.Article(ctx, "no-url", failOnError(t)); a.Found() {
		t.Error("expected url-less article to be not found")
	}
	if a := f.Article(ctx, "ok", failOnError(t)); !a.Found() {
		t.Error("expected article to be found")
	}
}

// recordingServer serves one article per request whose URL echoes the search term.
type recordingServer struct {
	mu       sync.Mutex
	searches []string
}

func (s *recordingServer) handler(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	s.mu.Lock()
	s.searches = append(s.searches, search)
	s.mu.Unlock()
	fmt.Fprintf(w, `{"articles":[{"url":"https://a.com/%s","sectors":["S-%s"]}]}`, search, search)
}

func (s *recordingServer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

func TestControllerDebouncesEdits(t *testing.T) {
	rec := &recordingServer{}
	ts := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer ts.Close()

	updates := make(chan Snapshot, 10)
	c := NewController(context.Background(), NewFetcher(api.NewClient(ts.URL, 0)), ControllerOptions{
		Debounce: 50 * time.Millisecond,
		OnError:  failOnError(t),
		OnUpdate: func(s Snapshot) { updates <- s },
	})
	defer c.Close()

	for _, term := range []string{"a", "ap", "app", "appl", "apple"} {
		c.Update(func(f *Filters) { f.Search = term })
		time.Sleep(5 * time.Millisecond)
	}

	var snap Snapshot
	select {
	case snap = <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced fetch never completed")
	}
	time.Sleep(150 * time.Millisecond)

	if got := rec.seen(); !reflect.DeepEqual(got, []string{"apple"}) {
		t.Errorf("expected exactly one fetch for 'apple', got %v", got)
	}
	if len(snap.Articles) != 1 || snap.Articles[0].URL != "https://a.com/apple" {
		t.Errorf("unexpected articles %+v", snap.Articles)
	}
	if !reflect.DeepEqual(snap.SectorOptions, []string{"all", "S-apple"}) {
		t.Errorf("unexpected sector options %v", snap.SectorOptions)
	}
}

func TestControllerLoadFetchesImmediately(t *testing.T) {
	rec := &recordingServer{}
	ts := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer ts.Close()

	c := NewController(context.Background(), NewFetcher(api.NewClient(ts.URL, 0)), ControllerOptions{
		Symbol:  "TSLA",
		OnError: failOnError(t),
	})
	defer c.Close()

	snap := c.Load()
	if len(snap.Articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(snap.Articles))
	}
	if len(rec.seen()) != 1 {
		t.Errorf("expected one request, got %d", len(rec.seen()))
	}
}

func TestControllerDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	var slowStarted atomic.Bool
	started := make(chan struct{})

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		search := r.URL.Query().Get("search")
		if search == "old" {
			if slowStarted.CompareAndSwap(false, true) {
				close(started)
			}
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
		fmt.Fprintf(w, `{"articles":[{"url":"https://a.com/%s"}]}`, search)
	}))
	defer ts.Close()
	defer close(release)

	initial := DefaultFilters()
	initial.Search = "old"
	updates := make(chan Snapshot, 10)
	c := NewController(context.Background(), NewFetcher(api.NewClient(ts.URL, 0)), ControllerOptions{
		Filters:  &initial,
		Debounce: 10 * time.Millisecond,
		OnError:  failOnError(t),
		OnUpdate: func(s Snapshot) { updates <- s },
	})
	defer c.Close()

	oldDone := make(chan Snapshot, 1)
	go func() { oldDone <- c.Load() }()
	<-started

	c.Update(func(f *Filters) { f.Search = "new" })

	select {
	case snap := <-updates:
		if snap.Articles[0].URL != "https://a.com/new" {
			t.Errorf("expected newest result, got %q", snap.Articles[0].URL)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("newer fetch never completed")
	}

	<-oldDone
	if got := c.Articles(); len(got) != 1 || got[0].URL != "https://a.com/new" {
		t.Errorf("stale response overwrote state: %+v", got)
	}
	select {
	case s := <-updates:
		t.Errorf("unexpected extra update %+v", s)
	default:
	}
}

func TestControllerCloseCancelsPending(t *testing.T) {
	rec := &recordingServer{}
	ts := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer ts.Close()

	c := NewController(context.Background(), NewFetcher(api.NewClient(ts.URL, 0)), ControllerOptions{
		Debounce: 30 * time.Millisecond,
		OnError:  failOnError(t),
	})
	c.Update(func(f *Filters) { f.Search = "x" })
	c.Close()

	time.Sleep(80 * time.Millisecond)
	if n := len(rec.seen()); n != 0 {
		t.Errorf("expected no fetch after Close, got %d", n)
	}
}

func TestControllerOlderFetchCannotCommitAfterNewer(t *testing.T) {
	rec := &recordingServer{}
	ts := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer ts.Close()

	initial := DefaultFilters()
	initial.Search = "old"
	var updates []string
	var updatesMu sync.Mutex
	c := NewController(context.Background(), NewFetcher(api.NewClient(ts.URL, 0)), ControllerOptions{
		Filters: &initial,
		OnError: failOnError(t),
		OnUpdate: func(s Snapshot) {
			updatesMu.Lock()
			updates = append(updates, s.Articles[0].URL)
			updatesMu.Unlock()
		},
	})
	defer c.Close()

	// Hold the first fetch after its response arrived but before it commits.
	reached := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	c.beforeCommit = func(latest.Token) {
		if first.CompareAndSwap(false, true) {
			close(reached)
			<-release
		}
	}

	oldDone := make(chan Snapshot, 1)
	go func() { oldDone <- c.refresh() }()
	<-reached

	c.mu.Lock()
	c.filters.Search = "new"
	c.mu.Unlock()
	newer := c.refresh()
	close(release)
	stale := <-oldDone

	if newer.Articles[0].URL != "https://a.com/new" {
		t.Fatalf("expected newer fetch to commit, got %+v", newer.Articles)
	}
	if got := c.Articles(); len(got) != 1 || got[0].URL != "https://a.com/new" {
		t.Errorf("older fetch overwrote the newer list: %+v", got)
	}
	if len(stale.Articles) != 1 || stale.Articles[0].URL != "https://a.com/new" {
		t.Errorf("expected superseded fetch to report the committed list, got %+v", stale.Articles)
	}
	if newer.Token != c.guard.Current() || stale.Token >= newer.Token {
		t.Errorf("expected snapshot tokens to order the fetches, got stale %d newer %d", stale.Token, newer.Token)
	}
	updatesMu.Lock()
	defer updatesMu.Unlock()
	if !reflect.DeepEqual(updates, []string{"https://a.com/new"}) {
		t.Errorf("expected one update with the newer list, got %v", updates)
	}
}
