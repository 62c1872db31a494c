// ABOUTME: Text processing for extracted article content
// ABOUTME: Detects HTML, converts it to Markdown, and derives plain-text excerpts

package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// DefaultExcerptLength is the rune budget for generated excerpts.
const DefaultExcerptLength = 280

// htmlTagPattern matches common HTML tags
var htmlTagPattern = regexp.MustCompile(`<\s*(p|div|span|a|br|img|h[1-6]|ul|ol|li|table|tr|td|th|strong|em|b|i|code|pre|blockquote|article|section)[^>]*>`)

var (
	markdownSyntax = regexp.MustCompile("(?m)^#{1,6}\\s+|[*_`>]|!?\\[([^\\]]*)\\]\\([^)]*\\)")
	whitespace     = regexp.MustCompile(`\s+`)
)

// IsHTML checks if content appears to be HTML
func IsHTML(content string) bool {
	if strings.Contains(content, "<!DOCTYPE") || strings.Contains(content, "<html") {
		return true
	}
	return htmlTagPattern.MatchString(content)
}

// ToMarkdown converts HTML content to Markdown. Content that does not look
// like HTML, or fails to convert, is returned unchanged.
func ToMarkdown(content string) string {
	if content == "" || !IsHTML(content) {
		return content
	}

	markdown, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(markdown)
}

// PlainText strips Markdown syntax and collapses whitespace. Link and
// image labels are kept.
func PlainText(markdown string) string {
	text := markdownSyntax.ReplaceAllStringFunc(markdown, func(m string) string {
		if sub := markdownSyntax.FindStringSubmatch(m); len(sub) > 1 && sub[1] != "" {
			return sub[1]
		}
		return " "
	})
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// Excerpt returns at most max runes of text, cut at a word boundary and
// suffixed with an ellipsis when shortened.
func Excerpt(text string, max int) string {
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
