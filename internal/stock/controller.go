package stock

import (
	"context"
	"sync"

	"github.com/TobiSchelling/StockFeed/internal/api"
	"github.com/TobiSchelling/StockFeed/internal/latest"
)

// View is the dashboard state after a fetch.
type View struct {
	Symbol  string
	Period  Period
	History *History
	Failed  bool
}

// Controller holds the symbol and period of one stock dashboard and refetches
// whenever either changes. A failed fetch leaves the dashboard in an error
// state until the next successful one.
type Controller struct {
	fetcher *Fetcher
	onError api.ErrorHandler
	ctx     context.Context
	guard   latest.Guard

	mu   sync.Mutex
	view View

	// beforeCommit runs between a fetch returning and its result being
	// committed. Tests use it to interleave fetches.
	beforeCommit func(latest.Token)
}

// NewController creates a controller for symbol. onError is required.
func NewController(ctx context.Context, fetcher *Fetcher, symbol string, period Period, onError api.ErrorHandler) *Controller {
	if onError == nil {
		panic("stock: NewController called with nil onError")
	}
	if period == "" {
		period = DefaultPeriod
	}
	return &Controller{
		fetcher: fetcher,
		onError: onError,
		ctx:     ctx,
		view:    View{Symbol: symbol, Period: period},
	}
}

// Load fetches the current symbol and period.
func (c *Controller) Load() View {
	return c.refresh()
}

// SetSymbol switches symbol and refetches.
func (c *Controller) SetSymbol(symbol string) View {
	c.mu.Lock()
	c.view.Symbol = symbol
	c.mu.Unlock()
	return c.refresh()
}

// SetPeriod switches period and refetches.
func (c *Controller) SetPeriod(p Period) View {
	c.mu.Lock()
	c.view.Period = p
	c.mu.Unlock()
	return c.refresh()
}

// View returns the state on display.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Close cancels any fetch in flight.
func (c *Controller) Close() {
	c.guard.Stop()
}

func (c *Controller) refresh() View {
	c.mu.Lock()
	symbol, period := c.view.Symbol, c.view.Period
	c.mu.Unlock()

	ctx, tok := c.guard.Begin(c.ctx)
	history, ok := c.fetcher.History(ctx, symbol, period, func(err error) {
		if ctx.Err() != nil {
			return
		}
		c.onError(err)
	})
	if c.beforeCommit != nil {
		c.beforeCommit(tok)
	}

	var view View
	committed := c.guard.Commit(tok, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.view.Failed = !ok
		c.view.History = history
		view = c.view
	})
	if !committed {
		return c.View()
	}
	return view
}
