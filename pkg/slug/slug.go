// Package slug derives URL-safe identifiers from titles and headings.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Pattern is the shape every valid slug satisfies: lower-case alphanumerics
// and hyphens, 3 to 64 characters, starting with an alphanumeric.
const Pattern = `^[a-z0-9][a-z0-9-]{2,63}$`

const (
	maxLength = 64
	minLength = 3
)

var slugRe = regexp.MustCompile(Pattern)

// Valid reports whether s already satisfies Pattern.
func Valid(s string) bool {
	return slugRe.MatchString(s)
}

// Make derives a slug from s: accents folded to their base characters,
// lower-cased, runs of anything outside [a-z0-9] collapsed to a single hyphen,
// trimmed, and truncated to 64 characters at a hyphen boundary when possible.
// Returns "" when fewer than 3 usable characters remain; callers are expected
// to fall back to an id-derived slug in that case.
func Make(s string) string {
	var b strings.Builder
	folded := strings.ToLower(foldAccents(s))
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen {
				b.WriteByte('-')
				pendingHyphen = false
			}
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			pendingHyphen = true
		}
	}
	out := truncate(b.String())
	if len(out) < minLength {
		return ""
	}
	return out
}

// foldAccents decomposes s and strips combining marks, so "Café" folds to "Cafe".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// truncate cuts s to maxLength, preferring the last hyphen boundary so words
// stay whole.
func truncate(s string) string {
	if len(s) <= maxLength {
		return s
	}
	cut := s[:maxLength]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, "-")
}
