package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	minTextRunes = 20
	maxTextRunes = 24000
)

// Document is the readable part of a scraped posting.
type Document struct {
	Title string
	Text  string
}

// ParseHTML strips markup and non-content elements from a scraped page.
func ParseHTML(html string) (Document, error) {
	if strings.TrimSpace(html) == "" {
		return Document{}, newError(KindMalformedInput, "empty html")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Document{}, newError(KindMalformedInput, "parse html: %w", err)
	}

	doc.Find("script, style, noscript, svg, iframe, head link, head meta").Remove()

	title := cleanText(doc.Find("h1").First().Text())
	if title == "" {
		title = cleanText(doc.Find("title").First().Text())
	}

	var blocks []string
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		s.Find("br").ReplaceWithHtml("\n")
		s.Find("p, li, div, h1, h2, h3, h4, tr").Each(func(_ int, el *goquery.Selection) {
			el.AppendHtml("\n")
		})
		blocks = append(blocks, s.Text())
	})
	if len(blocks) == 0 {
		blocks = append(blocks, doc.Text())
	}

	text := cleanText(strings.Join(blocks, "\n"))
	if utf8.RuneCountInString(text) < minTextRunes {
		return Document{}, newError(KindMalformedInput, "page has no readable content")
	}

	return Document{Title: title, Text: truncateRunes(text, maxTextRunes)}, nil
}

// cleanText collapses whitespace inside lines and drops blank lines.
func cleanText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
