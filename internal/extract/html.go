package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SelectText parses body as HTML and returns the text of every element
// matching selector, one element per line. Links keep their href next to
// the text so patterns can match the target URL.
func SelectText(body []byte, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	var b strings.Builder
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		b.WriteString(strings.TrimSpace(s.Text()))
		s.Find("a[href]").AddSelection(s.Filter("a[href]")).Each(func(_ int, a *goquery.Selection) {
			if href, ok := a.Attr("href"); ok {
				b.WriteString(" ")
				b.WriteString(href)
			}
		})
		b.WriteString("\n")
	})
	return b.String(), nil
}
