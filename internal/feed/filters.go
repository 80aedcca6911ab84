package feed

import (
	"fmt"
	"strings"
)

// TimeRange bounds how far back the feed reaches.
type TimeRange string

const (
	Range1h  TimeRange = "1h"
	Range4h  TimeRange = "4h"
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
)

// TimeRanges lists the selectable ranges in display order.
var TimeRanges = []TimeRange{Range1h, Range4h, Range24h, Range7d}

// Sentiment restricts the feed to one sentiment label.
type Sentiment string

const (
	SentimentAll      Sentiment = "all"
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments lists the selectable sentiments in display order.
var Sentiments = []Sentiment{SentimentAll, SentimentPositive, SentimentNeutral, SentimentNegative}

// SectorAll is the sentinel meaning no sector restriction.
const SectorAll = "all"

// Filters is the feed's filter state.
type Filters struct {
	Search          string
	TimeRange       TimeRange
	Sentiment       Sentiment
	Sector          string
	OnlyWithTickers bool
}

// DefaultFilters is the state a feed starts in.
func DefaultFilters() Filters {
	return Filters{
		TimeRange: Range24h,
		Sentiment: SentimentAll,
		Sector:    SectorAll,
	}
}

// HoursFromRange converts a time range to the backend's hour count.
func HoursFromRange(r TimeRange) int {
	switch r {
	case Range1h:
		return 1
	case Range4h:
		return 4
	case Range24h:
		return 24
	default:
		return 24 * 7
	}
}

// ParseTimeRange validates user input such as "4h".
func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TimeRanges {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid time range %q (want 1h, 4h, 24h or 7d)", s)
}

// ParseSentiment validates user input such as "positive".
func ParseSentiment(s string) (Sentiment, error) {
	v := Sentiment(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Sentiments {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid sentiment %q (want all, positive, neutral or negative)", s)
}

func (f Filters) String() string {
	return fmt.Sprintf("search=%q range=%s sentiment=%s sector=%s only_with_tickers=%t",
		f.Search, f.TimeRange, f.Sentiment, f.Sector, f.OnlyWithTickers)
}
