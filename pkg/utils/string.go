package utils

import (
	"strings"

	"golang.org/x/net/html"
)

// NormalizeWhitespace replaces runs of whitespace with a single space and trims the ends.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateRunes returns at most maxRunes runes of str.
func TruncateRunes(str string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	runes := []rune(str)
	if len(runes) <= maxRunes {
		return str
	}

	return string(runes[:maxRunes])
}

// StripHTML returns the text content of an HTML fragment with whitespace collapsed.
// CourtListener snippets wrap matches in <mark> and Federal Register abstracts
// occasionally carry inline markup; neither belongs in a plain-text summary.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return NormalizeWhitespace(fragment)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var sb strings.Builder

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return NormalizeWhitespace(sb.String())
		case html.TextToken:
			sb.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if isBlockTag(string(name)) {
				sb.WriteByte(' ')
			}
		}
	}
}

func isBlockTag(name string) bool {
	switch name {
	case "br", "p", "div", "li", "ul", "ol", "tr", "td", "h1", "h2", "h3", "h4":
		return true
	}

	return false
}
