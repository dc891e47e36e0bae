package sources

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultDescriptionLimit is the number of runes kept from a description
const DefaultDescriptionLimit = 2000

// CleanText strips markup, collapses whitespace and truncates to limit runes with "..."
func CleanText(raw string, limit int) string {
	text := raw
	if strings.ContainsAny(raw, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err == nil {
			doc.Find("script, style").Remove()
			// Keep block boundaries as word breaks
			doc.Find("p, br, li, div, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, sel *goquery.Selection) {
				sel.AppendHtml(" ")
			})
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
