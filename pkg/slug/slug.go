// Package slug derives download filenames from document titles.
package slug

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLength bounds the filename base in runes.
	MaxLength = 80
	fallback  = "documento"
)

// Filename converts a title into a filename base. ASCII letters, digits and
// the Latin-1 accented range (U+00C0 to U+00FF) survive; every other run of
// characters collapses to a single underscore.
func Filename(title string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range norm.NFC.String(strings.TrimSpace(title)) {
		if keep(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	out := b.String()
	if utf8.RuneCountInString(out) > MaxLength {
		out = strings.TrimRight(string([]rune(out)[:MaxLength]), "_")
	}
	if out == "" {
		return fallback
	}
	return out
}

func keep(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x00C0 && r <= 0x00FF:
		return true
	}
	return false
}
