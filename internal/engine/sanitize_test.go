package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"strips tags", "<b>bold</b> move", "bold move"},
		{"collapses whitespace", "  a \t b\n c  ", "a b c"},
		{"decodes entities", "fish &amp; chips", "fish & chips"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeText(tc.input))
		})
	}
}

func TestSanitizeHTML(t *testing.T) {
	got := sanitizeHTML(`<p>ok</p><script>alert(1)</script><a href="javascript:x">link</a>`)
	assert.Contains(t, got, "<p>ok</p>")
	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "javascript:")
}

func TestSanitizeMultiline(t *testing.T) {
	got := sanitizeMultiline("line one\nline two\n")
	assert.Equal(t, "line one\nline two", got)
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Hello, World!", "hello-world"},
		{"  spaced  out  ", "spaced-out"},
		{"CamelCase123", "camelcase123"},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, slugify(tc.input), "slugify(%q)", tc.input)
	}
}
