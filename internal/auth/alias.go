package auth

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DeriveAlias turns a display label into a CLI-safe alias: diacritics folded,
// lowercased, whitespace to hyphens, anything outside [a-z0-9-] dropped.
func DeriveAlias(label string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.TrimSpace(label),
	)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('-')
		case r == '-', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidAlias reports whether alias is a non-empty token of [a-z0-9-], the
// form DeriveAlias produces.
func ValidAlias(alias string) bool {
	if alias == "" {
		return false
	}
	for _, r := range alias {
		if r != '-' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
