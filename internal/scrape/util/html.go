package util

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MaxDescriptionLen bounds stored descriptions, in characters.
const MaxDescriptionLen = 4000

const maxExtractPasses = 8

var (
	// editor scaffolding that only carries line numbers
	scaffoldSelector = strings.Join([]string{
		"script", "style", "noscript",
		"[class*='gutter']",
		"[class*='line-number']",
		"[class*='linenumber']",
		"[class*='lineno']",
	}, ", ")

	// only real HTML tags count as markup, so cleaned text that mentions
	// "<team>" is left alone on a second pass
	markupRe = regexp.MustCompile(`(?i)<(?:!--|!doctype|/?(?:a|abbr|address|article|aside|b|blockquote|body|br|code|dd|div|dl|dt|em|figcaption|figure|font|footer|form|h[1-6]|head|header|hr|html|i|img|li|main|nav|noscript|ol|p|pre|script|section|small|span|strong|style|sub|sup|table|tbody|td|th|thead|tr|u|ul)\b[^>]*>)`)

	horizontalWS = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "tr": true, "ul": true,
}

// Clean turns markup (or plain text) into normalized plain text bounded by
// MaxDescriptionLen. ok is false when nothing visible remains.
func Clean(markupOrText string) (text string, ok bool) {
	if strings.TrimSpace(markupOrText) == "" {
		return "", false
	}

	// Escaped tags decode to real ones, so extract until no markup is left.
	// Otherwise a second Clean would strip what the first one kept.
	s := markupOrText
	for pass := 0; pass < maxExtractPasses && markupRe.MatchString(s); pass++ {
		extracted, err := visibleText(s)
		if err != nil {
			break
		}
		s = extracted
	}

	s = normalizeWhitespace(s)
	s = strings.TrimSpace(truncateRunes(s, MaxDescriptionLen))
	if s == "" {
		return "", false
	}
	return s, true
}

// Truncate is the plain-text path: no parsing, just the length bound.
func Truncate(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return truncateRunes(text, MaxDescriptionLen), true
}

func visibleText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}
	doc.Find(scaffoldSelector).Remove()

	var b strings.Builder
	writeText(&b, doc.Find("body"))
	return b.String(), nil
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch name {
		case "#text":
			b.WriteString(c.Text())
			return
		case "#comment":
			return
		case "br":
			b.WriteByte('\n')
			return
		}
		block := blockTags[name]
		if block {
			b.WriteByte('\n')
		}
		writeText(b, c)
		if block {
			b.WriteByte('\n')
		}
	})
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalWS.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
