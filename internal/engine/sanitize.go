package engine

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// sanitizeText reduces a value to single-line plain text: tags stripped,
// entities decoded, whitespace collapsed.
func sanitizeText(s string) string {
	s = plainPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// sanitizeMultiline reduces a value to plain text but keeps line breaks,
// for excerpt-style fields.
func sanitizeMultiline(s string) string {
	s = plainPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// sanitizeHTML keeps standard user-generated formatting and strips scripts
// and unsafe markup.
func sanitizeHTML(s string) string {
	return richPolicy.Sanitize(s)
}

// slugify converts a slug or title to a URL-safe form.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
