// Package section replaces or appends heading-delimited sections of Markdown files.
package section

import "strings"

const metaChars = `\.+*?()|[]{}^$`

// EscapePattern escapes every regular-expression metacharacter in s so the
// result matches s literally.
func EscapePattern(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if strings.ContainsRune(metaChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
