package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFKD and drops combining marks, so accented
// characters fold to their ASCII base before slugging.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Slugify derives a URL-safe show slug: lowercase, diacritics stripped,
// runs of non-alphanumerics collapsed to a single "-", no leading or
// trailing "-". The result is a pure function of the input, so slugs are
// stable across catalog reloads, and Slugify is idempotent.
func Slugify(input string) string {
	s := strings.ToLower(input)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}

// SessionKey builds the persistence key for a (show, episode) pair.
func SessionKey(showSlug string, episode int) string {
	return showSlug + ":" + strconv.Itoa(episode)
}

// ParseSessionKey splits a session key back into its slug and episode
// number.
func ParseSessionKey(key string) (showSlug string, episode int, err error) {
	slug, num, ok := strings.Cut(key, ":")
	if !ok || slug == "" {
		return "", 0, fmt.Errorf("malformed session key %q", key)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return "", 0, fmt.Errorf("malformed session key %q: %w", key, err)
	}
	return slug, n, nil
}
