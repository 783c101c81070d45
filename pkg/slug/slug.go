// Package slug validates and derives the URL-safe identifiers that name
// tenants. A slug is immutable once assigned and doubles as the seed for
// the tenant's database name, so the character class is deliberately
// narrow: lowercase ASCII letters, digits and hyphens.
package slug

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalid is returned when a candidate slug contains characters outside
// the allowed class or is empty.
var ErrInvalid = errors.New("slug: must contain only lowercase letters, digits and hyphens")

var pattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Validate checks s against the allowed character class.
func Validate(s string) error {
	if !pattern.MatchString(s) {
		return ErrInvalid
	}
	return nil
}

// IsValid reports whether s is a well-formed slug.
func IsValid(s string) bool {
	return pattern.MatchString(s)
}

// Make derives a slug from an arbitrary display name: lowercased, runs of
// non-alphanumeric characters collapsed into single hyphens, leading and
// trailing hyphens trimmed. Make("Iglesia Central") == "iglesia-central".
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range name {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
