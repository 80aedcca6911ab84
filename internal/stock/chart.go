package stock

import (
	"strconv"
	"strings"
)

// Sparkline returns SVG polyline points for the closes, scaled to a w×h box
// with the highest close at the top. Fewer than two candles yield "".
func Sparkline(candles []Candle, w, h float64) string {
	if len(candles) < 2 || w <= 0 || h <= 0 {
		return ""
	}

	lo, hi := candles[0].Close, candles[0].Close
	for _, c := range candles[1:] {
		lo = min(lo, c.Close)
		hi = max(hi, c.Close)
	}
	span := hi - lo

	step := w / float64(len(candles)-1)
	var b strings.Builder
	for i, c := range candles {
		y := h / 2
		if span > 0 {
			y = h - (c.Close-lo)/span*h
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(float64(i)*step, 'f', 1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(y, 'f', 1, 64))
	}
	return b.String()
}

var bars = []rune("▁▂▃▄▅▆▇█")

// TextSparkline renders closes as a row of block characters, resampled to at
// most width columns.
func TextSparkline(candles []Candle, width int) string {
	if len(candles) == 0 || width <= 0 {
		return ""
	}
	n := min(len(candles), width)
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = candles[i*len(candles)/n].Close
	}
	closes[n-1] = candles[len(candles)-1].Close

	lo, hi := closes[0], closes[0]
	for _, c := range closes {
		lo = min(lo, c)
		hi = max(hi, c)
	}

	out := make([]rune, n)
	for i, c := range closes {
		idx := len(bars) / 2
		if hi > lo {
			idx = int((c - lo) / (hi - lo) * float64(len(bars)-1))
		}
		out[i] = bars[idx]
	}
	return string(out)
}
