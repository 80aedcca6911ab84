package feed

import (
	"context"
	"sync"
	"time"

	"github.com/TobiSchelling/StockFeed/internal/api"
	"github.com/TobiSchelling/StockFeed/internal/article"
	"github.com/TobiSchelling/StockFeed/internal/debounce"
	"github.com/TobiSchelling/StockFeed/internal/latest"
)

// DefaultDebounce is the quiet period between the last filter edit and the refetch.
const DefaultDebounce = 300 * time.Millisecond

// Snapshot is what a feed displays after a fetch completes.
type Snapshot struct {
	Filters       Filters
	Articles      []article.Article
	SectorOptions []string
	Token         latest.Token
}

// Controller owns the filter state and the displayed article list of one feed.
// Filter edits are debounced; only the newest fetch may replace the list.
type Controller struct {
	fetcher  *Fetcher
	symbol   string
	onError  api.ErrorHandler
	onUpdate func(Snapshot)

	ctx      context.Context
	cancel   context.CancelFunc
	debounce *debounce.Debouncer
	guard    latest.Guard

	mu       sync.Mutex
	filters  Filters
	articles []article.Article

	notifyMu sync.Mutex

	// beforeCommit runs between a fetch returning and its result being
	// committed. Tests use it to interleave fetches.
	beforeCommit func(latest.Token)
}

// ControllerOptions configures a Controller. OnError is required.
type ControllerOptions struct {
	Symbol   string
	Filters  *Filters
	Debounce time.Duration
	OnError  api.ErrorHandler
	OnUpdate func(Snapshot)
}

// NewController creates a feed controller. Nothing is fetched until Load.
func NewController(ctx context.Context, fetcher *Fetcher, opts ControllerOptions) *Controller {
	if opts.OnError == nil {
		panic("feed: NewController called with nil OnError")
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	filters := DefaultFilters()
	if opts.Filters != nil {
		filters = *opts.Filters
	}

	cctx, cancel := context.WithCancel(ctx)
	return &Controller{
		fetcher:  fetcher,
		symbol:   opts.Symbol,
		onError:  opts.OnError,
		onUpdate: opts.OnUpdate,
		ctx:      cctx,
		cancel:   cancel,
		debounce: debounce.New(delay),
		filters:  filters,
		articles: []article.Article{},
	}
}

// Load fetches immediately with the current filters and waits for the result.
func (c *Controller) Load() Snapshot {
	return c.refresh()
}

// SetSymbol rescopes the feed and fetches immediately.
func (c *Controller) SetSymbol(symbol string) Snapshot {
	c.mu.Lock()
	c.symbol = symbol
	c.mu.Unlock()
	c.debounce.Cancel()
	return c.refresh()
}

// SetFilters replaces the filters and schedules a debounced refetch.
func (c *Controller) SetFilters(f Filters) {
	c.mu.Lock()
	c.filters = f
	c.mu.Unlock()
	c.schedule()
}

// Update edits the filters in place and schedules a debounced refetch.
func (c *Controller) Update(edit func(*Filters)) {
	c.mu.Lock()
	edit(&c.filters)
	c.mu.Unlock()
	c.schedule()
}

// Filters returns the current filter state.
func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Articles returns the list currently on display.
func (c *Controller) Articles() []article.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.articles
}

// SectorOptions derives the sector choices from the list on display.
func (c *Controller) SectorOptions() []string {
	return SectorOptions(c.Articles())
}

// Close cancels the pending refetch and any fetch in flight.
func (c *Controller) Close() {
	c.debounce.Cancel()
	c.guard.Stop()
	c.cancel()
}

func (c *Controller) schedule() {
	c.debounce.Trigger(func() { c.refresh() })
}

// refresh fetches with the filters as they are now. The result replaces the
// displayed list only if no newer fetch started meanwhile.
func (c *Controller) refresh() Snapshot {
	c.mu.Lock()
	filters, symbol := c.filters, c.symbol
	c.mu.Unlock()

	ctx, tok := c.guard.Begin(c.ctx)
	articles := c.fetcher.Articles(ctx, filters, symbol, func(err error) {
		// A superseded request is expected to fail with a cancelled context.
		if ctx.Err() != nil {
			return
		}
		c.onError(err)
	})

	if c.beforeCommit != nil {
		c.beforeCommit(tok)
	}

	var snap Snapshot
	committed := c.guard.Commit(tok, func() {
		c.mu.Lock()
		c.articles = articles
		c.mu.Unlock()
		snap = c.snapshot(tok)
	})
	if !committed {
		return c.snapshot(tok)
	}

	// Notifications are serialized and skipped once a newer fetch has begun,
	// so the last snapshot delivered is always the newest one.
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if c.onUpdate != nil && c.guard.Current() == tok {
		c.onUpdate(snap)
	}
	return snap
}

func (c *Controller) snapshot(tok latest.Token) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Filters:       c.filters,
		Articles:      c.articles,
		SectorOptions: SectorOptions(c.articles),
		Token:         tok,
	}
}
