package reader

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockTags end a line of plain text.
var blockTags = "p, div, li, h1, h2, h3, h4, h5, h6, blockquote, pre, tr, br"

// PlainText strips markup from an HTML fragment, keeping one line per block
// element and dropping scripts and styles.
func PlainText(html string) string {
	if !strings.Contains(html, "<") {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find(blockTags).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
