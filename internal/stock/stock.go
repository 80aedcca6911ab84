package stock

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/TobiSchelling/StockFeed/internal/api"
)

// Period selects how much history to load.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	PeriodYTD Period = "ytd"
	Period1y  Period = "1y"
	Period3y  Period = "3y"
	Period5y  Period = "5y"
)

// DefaultPeriod is selected when a dashboard opens.
const DefaultPeriod = Period5d

// PeriodOption pairs a period with its button label.
type PeriodOption struct {
	Label string
	Value Period
}

var periodOptions = []PeriodOption{
	{"1D", Period1d},
	{"5D", Period5d},
	{"1M", Period1mo},
	{"3M", Period3mo},
	{"6M", Period6mo},
	{"YTD", PeriodYTD},
	{"1Y", Period1y},
	{"3Y", Period3y},
	{"5Y", Period5y},
}

// Periods lists the selectable periods in display order.
func Periods() []PeriodOption {
	return append([]PeriodOption(nil), periodOptions...)
}

// ParsePeriod validates user input such as "1mo".
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, o := range periodOptions {
		if o.Value == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid period %q", s)
}

// Candle is one price bucket. Time is in unix seconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"Open"`
	High   float64 `json:"High"`
	Low    float64 `json:"Low"`
	Close  float64 `json:"Close"`
	Volume float64 `json:"Volume"`
}

// TickerInfo is the quote snapshot returned alongside a history.
type TickerInfo struct {
	Name               *string  `json:"name,omitempty"`
	Symbol             *string  `json:"symbol,omitempty"`
	RegularMarketPrice *float64 `json:"regularMarketPrice,omitempty"`
	Currency           *string  `json:"currency,omitempty"`
	PreviousClose      *float64 `json:"previousClose,omitempty"`
	Exchange           *string  `json:"exchange,omitempty"`
}

// History is a full price series for one symbol and period. It is replaced
// wholesale on every fetch.
type History struct {
	Candles []Candle    `json:"candles"`
	Ticker  *TickerInfo `json:"ticker"`
}

// Fetcher retrieves price history from the backend.
type Fetcher struct {
	client *api.Client
}

// NewFetcher creates a Fetcher on top of client.
func NewFetcher(client *api.Client) *Fetcher {
	return &Fetcher{client: client}
}

// History loads the series for symbol and period. On failure the error goes
// to onError and ok is false; no partial history is returned.
func (f *Fetcher) History(ctx context.Context, symbol string, period Period, onError api.ErrorHandler) (*History, bool) {
	path := fmt.Sprintf("/stock/%s/history?period=%s", url.PathEscape(symbol), url.QueryEscape(string(period)))

	var result struct {
		History *History `json:"history"`
	}
	if !f.client.Get(ctx, path, &result, onError) {
		return nil, false
	}
	if result.History == nil {
		return &History{}, true
	}
	return result.History, true
}

// PriceChange compares the current price with the first loaded candle.
type PriceChange struct {
	Dollar  float64
	Percent float64
	Since   time.Time
}

// Change computes the move from the first candle's close to the ticker's
// current price, both rounded to cents / hundredths of a percent.
// ok is false when there is no series or no ticker snapshot.
func Change(h *History) (PriceChange, bool) {
	if h == nil || h.Ticker == nil || len(h.Candles) == 0 {
		return PriceChange{}, false
	}
	first := h.Candles[0]
	current := 0.0
	if h.Ticker.RegularMarketPrice != nil {
		current = *h.Ticker.RegularMarketPrice
	}

	dollar := round2(current - first.Close)
	percent := 0.0
	if first.Close != 0 {
		percent = round2(dollar / first.Close * 100)
	}
	return PriceChange{
		Dollar:  dollar,
		Percent: percent,
		Since:   time.Unix(first.Time, 0),
	}, true
}

// String renders the change as "+$1.23 (+0.45%)".
func (c PriceChange) String() string {
	sign := ""
	switch {
	case c.Dollar > 0:
		sign = "+"
	case c.Dollar < 0:
		sign = "-"
	}
	return fmt.Sprintf("%s$%.2f (%s%.2f%%)", sign, math.Abs(c.Dollar), sign, math.Abs(c.Percent))
}

// Direction is "up", "down" or "flat".
func (c PriceChange) Direction() string {
	switch {
	case c.Dollar > 0:
		return "up"
	case c.Dollar < 0:
		return "down"
	default:
		return "flat"
	}
}

var labelLayouts = map[Period]string{
	Period1d:  "15:04",
	Period5d:  "Jan 02, 15:04",
	Period1mo: "Jan 02",
	Period3mo: "Jan 02",
	Period6mo: "Jan",
	PeriodYTD: "Jan",
	Period1y:  "Jan",
	Period3y:  "2006",
	Period5y:  "2006",
}

// TimeLabel formats a candle timestamp for the chart axis of period.
func TimeLabel(period Period, unix int64) string {
	layout, ok := labelLayouts[period]
	if !ok {
		layout = "Jan 02, 2006"
	}
	return time.Unix(unix, 0).Format(layout)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
