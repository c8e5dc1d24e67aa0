package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderHTML(t *testing.T) {
	out := RenderHTML("# Cosmic Calendar\n\nPlan by **the planets**.")
	assert.Contains(t, out, "<h1>Cosmic Calendar</h1>")
	assert.Contains(t, out, "<strong>the planets</strong>")

	assert.Empty(t, RenderHTML("   "))
}

func TestRenderHTMLDropsRawHTML(t *testing.T) {
	out := RenderHTML("hello <script>alert(1)</script>")
	assert.NotContains(t, out, "<script>")
}

func TestPlainText(t *testing.T) {
	got := PlainText("## Mindful *Monday*\n\n- breathe\n- rest & reset")
	assert.Equal(t, "Mindful Monday breathe rest & reset", got)
}

func TestExcerpt(t *testing.T) {
	short := "Full moon tonight"
	got, cut := Excerpt(short, ExcerptLength)
	assert.Equal(t, short, got)
	assert.False(t, cut)

	long := strings.Repeat("🌙", ExcerptLength+10)
	got, cut = Excerpt(long, ExcerptLength)
	assert.True(t, cut)
	assert.Equal(t, strings.Repeat("🌙", ExcerptLength)+"…", got)

	got, cut = Excerpt("abc def", 4)
	assert.True(t, cut)
	assert.Equal(t, "abc…", got)
}
