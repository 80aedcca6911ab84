package stock

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/TobiSchelling/StockFeed/internal/api"
	"github.com/TobiSchelling/StockFeed/internal/latest"
)

func fptr(f float64) *float64 { return &f }

func TestParsePeriod(t *testing.T) {
	for _, o := range Periods() {
		p, err := ParsePeriod(strings.ToUpper(string(o.Value)))
		if err != nil || p != o.Value {
			t.Errorf("ParsePeriod(%q) = %q, %v", o.Value, p, err)
		}
	}
	if _, err := ParsePeriod("2w"); err == nil {
		t.Error("expected error for 2w")
	}
	if len(Periods()) != 9 {
		t.Errorf("expected 9 periods, got %d", len(Periods()))
	}
}

func TestFetcherHistory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/AAPL/history" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("period") != "1mo" {
			t.Errorf("expected period=1mo, got %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"history":{"candles":[{"time":1700000000,"Close":100.5},{"time":1700086400,"Close":101}],"ticker":{"name":"Apple Inc.","regularMarketPrice":110.75,"currency":"USD"}}}`)
	}))
	defer ts.Close()

	f := NewFetcher(api.NewClient(ts.URL, 0))
	h, ok := f.History(context.Background(), "AAPL", Period1mo, func(err error) {
		t.Errorf("unexpected error: %v", err)
	})
	if !ok {
		t.Fatal("expected ok")
	}
	if len(h.Candles) != 2 || h.Candles[0].Close != 100.5 {
		t.Errorf("unexpected candles %+v", h.Candles)
	}
	if h.Ticker == nil || *h.Ticker.Name != "Apple Inc." {
		t.Errorf("unexpected ticker %+v", h.Ticker)
	}
}

func TestFetcherHistoryFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	var reported bool
	f := NewFetcher(api.NewClient(ts.URL, 0))
	h, ok := f.History(context.Background(), "NOPE", Period5d, func(error) { reported = true })
	if ok || h != nil {
		t.Errorf("expected failure with no partial data, got %+v", h)
	}
	if !reported {
		t.Error("expected error to be reported")
	}
}

func TestChange(t *testing.T) {
	h := &History{
		Candles: []Candle{{Time: 1700000000, Close: 200}, {Time: 1700086400, Close: 190}},
		Ticker:  &TickerInfo{RegularMarketPrice: fptr(210.456)},
	}
	c, ok := Change(h)
	if !ok {
		t.Fatal("expected change")
	}
	if c.Dollar != 10.46 {
		t.Errorf("expected 10.46, got %v", c.Dollar)
	}
	if c.Percent != 5.23 {
		t.Errorf("expected 5.23, got %v", c.Percent)
	}
	if c.Since.Unix() != 1700000000 {
		t.Errorf("expected first candle time, got %v", c.Since)
	}
	if c.String() != "+$10.46 (+5.23%)" {
		t.Errorf("unexpected rendering %q", c.String())
	}
}

func TestChangeNegativeAndZeroBase(t *testing.T) {
	h := &History{
		Candles: []Candle{{Close: 50}},
		Ticker:  &TickerInfo{RegularMarketPrice: fptr(45)},
	}
	c, _ := Change(h)
	if c.String() != "-$5.00 (-10.00%)" || c.Direction() != "down" {
		t.Errorf("unexpected %q / %s", c.String(), c.Direction())
	}

	h.Candles[0].Close = 0
	c, _ = Change(h)
	if c.Percent != 0 {
		t.Errorf("expected 0%% on zero base, got %v", c.Percent)
	}
}

func TestChangeMissingData(t *testing.T) {
	if _, ok := Change(nil); ok {
		t.Error("expected no change for nil history")
	}
	if _, ok := Change(&History{Candles: []Candle{{Close: 1}}}); ok {
		t.Error("expected no change without ticker")
	}
	if _, ok := Change(&History{Ticker: &TickerInfo{}}); ok {
		t.Error("expected no change without candles")
	}
}

func TestTimeLabel(t *testing.T) {
	// 2024-03-05 is fine in any local zone for a year label.
	if got := TimeLabel(Period5y, 1709640000); got != "2024" {
		t.Errorf("expected 2024, got %q", got)
	}
	if got := TimeLabel(Period1d, 1709640000); len(got) != 5 {
		t.Errorf("expected HH:MM, got %q", got)
	}
}

func TestSparkline(t *testing.T) {
	if Sparkline([]Candle{{Close: 1}}, 100, 50) != "" {
		t.Error("expected empty sparkline for one candle")
	}
	pts := Sparkline([]Candle{{Close: 10}, {Close: 20}, {Close: 15}}, 100, 50)
	if pts != "0.0,50.0 50.0,0.0 100.0,25.0" {
		t.Errorf("unexpected points %q", pts)
	}
	flat := Sparkline([]Candle{{Close: 5}, {Close: 5}}, 10, 10)
	if flat != "0.0,5.0 10.0,5.0" {
		t.Errorf("unexpected flat points %q", flat)
	}
}

func TestControllerErrorState(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "BAD") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"history":{"candles":[{"time":1,"Close":1}],"ticker":{"regularMarketPrice":2}}}`)
	}))
	defer ts.Close()

	var errs int
	c := NewController(context.Background(), NewFetcher(api.NewClient(ts.URL, 0)), "AAPL", "", func(error) { errs++ })
	defer c.Close()

	v := c.Load()
	if v.Failed || v.History == nil || v.Period != DefaultPeriod {
		t.Errorf("expected loaded view, got %+v", v)
	}

	v = c.SetSymbol("BAD")
	if !v.Failed || v.History != nil {
		t.Errorf("expected error state without data, got %+v", v)
	}
	if errs != 1 {
		t.Errorf("expected one reported error, got %d", errs)
	}

	v = c.SetSymbol("MSFT")
	if v.Failed {
		t.Error("expected error cleared after successful fetch")
	}
	v = c.SetPeriod(Period1y)
	if v.Period != Period1y {
		t.Errorf("expected period 1y, got %s", v.Period)
	}
}

func TestTextSparkline(t *testing.T) {
	got := TextSparkline([]Candle{{Close: 1}, {Close: 8}, {Close: 4.5}}, 10)
	if got != "▁█▄" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := TextSparkline(make([]Candle, 50), 20); len([]rune(got)) != 20 {
		t.Errorf("expected 20 columns, got %d", len([]rune(got)))
	}
	if TextSparkline(nil, 10) != "" {
		t.Error("expected empty sparkline without candles")
	}
}

func TestControllerOlderFetchCannotCommitAfterNewer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		price := "1"
		if strings.Contains(r.URL.Path, "NEW") {
			price = "2"
		}
		fmt.Fprintf(w, `{"history":{"candles":[{"time":1,"Close":1}],"ticker":{"regularMarketPrice":%s}}}`, price)
	}))
	defer ts.Close()

	c := NewController(context.Background(), NewFetcher(api.NewClient(ts.URL, 0)), "OLD", Period1d, func(err error) {
		t.Errorf("unexpected error: %v", err)
	})
	defer c.Close()

	reached := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	c.beforeCommit = func(latest.Token) {
		if first.CompareAndSwap(false, true) {
			close(reached)
			<-release
		}
	}

	oldDone := make(chan View, 1)
	go func() { oldDone <- c.Load() }()
	<-reached

	newer := c.SetSymbol("NEW")
	close(release)
	<-oldDone

	price := func(v View) float64 { return *v.History.Ticker.RegularMarketPrice }
	if price(newer) != 2 {
		t.Fatalf("expected newer fetch to commit, got %v", price(newer))
	}
	if v := c.View(); v.Symbol != "NEW" || price(v) != 2 {
		t.Errorf("older fetch overwrote the newer view: %s %v", v.Symbol, price(v))
	}
}
