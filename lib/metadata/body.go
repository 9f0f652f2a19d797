package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Paragraphs returns the trimmed text of every <p> element in a body.
func Paragraphs(body string) ([]string, error) {
	if body == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	var out []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out, nil
}
