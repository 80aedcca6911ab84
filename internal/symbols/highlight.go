package symbols

import "strings"

// Segment is a run of text that either matches the query or not.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits text into segments, marking every case-insensitive
// literal occurrence of query. An empty query yields one plain segment.
func Highlight(text, query string) []Segment {
	if text == "" {
		return nil
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return []Segment{{Text: text}}
	}

	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(q)
	// Lower-casing can change byte lengths outside ASCII; fall back to no
	// highlighting rather than slicing the original at wrong offsets.
	if len(lowerText) != len(text) || len(lowerQuery) != len(q) {
		return []Segment{{Text: text}}
	}

	var segs []Segment
	pos := 0
	for pos < len(text) {
		i := strings.Index(lowerText[pos:], lowerQuery)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(lowerQuery)
		if start > pos {
			segs = append(segs, Segment{Text: text[pos:start]})
		}
		segs = append(segs, Segment{Text: text[start:end], Match: true})
		pos = end
	}
	if pos < len(text) {
		segs = append(segs, Segment{Text: text[pos:]})
	}
	return segs
}
