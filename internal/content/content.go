// Package content renders idea and preview bodies for review screens.
package content

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// ExcerptLength is how many characters list views show before the
// expand toggle.
const ExcerptLength = 150

var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// RenderHTML converts a markdown body to HTML. Raw HTML in the source
// is not passed through.
func RenderHTML(markdown string) string {
	text := strings.TrimSpace(markdown)
	if text == "" {
		return ""
	}

	var out bytes.Buffer
	if err := engine.Convert([]byte(text), &out); err != nil {
		return template.HTMLEscapeString(text)
	}
	return out.String()
}

// PlainText renders markdown and strips the markup, collapsing
// whitespace, so excerpts do not cut through syntax.
func PlainText(markdown string) string {
	rendered := RenderHTML(markdown)
	if rendered == "" {
		return ""
	}
	text := tagPattern.ReplaceAllString(rendered, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// Excerpt returns at most limit characters of s and whether anything
// was cut off. It never splits a multi-byte character.
func Excerpt(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:limit]), isSpace) + "…", true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
