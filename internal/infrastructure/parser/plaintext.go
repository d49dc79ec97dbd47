// Package parser reduces stored article markup to plain text.
package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, div, br, li, h1, h2, h3, h4, h5, h6, blockquote, tr"

// PlainText strips markup from s and normalises whitespace. Paragraph-level
// elements become line breaks. Input without markup is only trimmed.
func PlainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return normalizeSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return normalizeSpace(s)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		sel.AfterHtml("\n")
	})

	return normalizeSpace(doc.Text())
}

// HasMarkup reports whether s parses to at least one HTML element. A bare
// "<" in prose such as "<3" or "a < b" is not markup.
func HasMarkup(s string) bool {
	if !strings.ContainsRune(s, '<') {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return false
	}
	return doc.Find("head *, body *").Length() > 0
}

// Preview returns PlainText(s) cut to at most n runes, marking the cut with "...".
func Preview(s string, n int) string {
	text := strings.Join(strings.Fields(PlainText(s)), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

func normalizeSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
