package jobs

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText turns an HTML snippet into single spaced text. Input that does
// not parse is returned with whitespace collapsed.
func PlainText(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	if !strings.ContainsAny(html, "<&") {
		return collapseSpace(html)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapseSpace(html)
	}
	doc.Find("script, style").Remove()

	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
