package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractHTMLText reduces an HTML course page to plain text, one block
// element per line, so the regular document parser can read it. Header
// and lesson-marker lines survive as long as the page renders them as
// their own headings or paragraphs.
func ExtractHTMLText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, p, li").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteString("\n")
	})

	if b.Len() == 0 {
		return strings.TrimSpace(doc.Find("body").Text()), nil
	}
	return b.String(), nil
}
