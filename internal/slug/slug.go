// Package slug builds URL slugs for profiles and resolves city and subject
// slugs back to their display names.
package slug

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	suffixLength   = 6
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Make lowercases, strips accents and joins words with single dashes:
// "José  O'Brien" -> "jose-obrien".
func Make(parts ...string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range norm.NFD.String(strings.Join(parts, " ")) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining accent
		case r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
	}

	return b.String()
}

// WithSuffix appends a dash and six random lowercase alphanumerics.
func WithSuffix(base string) (string, error) {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, v := range buf {
		buf[i] = suffixAlphabet[int(v)%len(suffixAlphabet)]
	}
	return base + "-" + string(buf), nil
}

// Resolve maps a slug to the display name it was built from. Known names are
// matched first; otherwise the slug is title-cased ("san-antonio" -> "San Antonio").
func Resolve(s string, known []string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	for _, name := range known {
		if Make(name) == s {
			return name
		}
	}

	words := strings.Split(s, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
