package imagesync

import (
	"path"
	"strings"
)

// DefaultPrefixLength is how many leading characters of a base name must
// appear in the other string for two names to match.
const DefaultPrefixLength = 20

// Matcher finds replacement objects for broken references by file name.
//
// Upload names look like "<id>-<timestamp>-<original-name>.<ext>". The base
// name is the original name part. A key matches a broken locator when the
// key contains the first PrefixLength characters of the locator's base name,
// or the locator's base name contains the first PrefixLength characters of
// the key's base name.
type Matcher struct {
	PrefixLength int
}

// BaseName derives the base name from a locator or key: last "/" segment,
// query and extension removed, first two "-" tokens dropped. It returns ""
// when fewer than three tokens remain.
func BaseName(locator string) string {
	seg := locator
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	if i := strings.IndexAny(seg, "?#"); i >= 0 {
		seg = seg[:i]
	}
	seg = strings.TrimSuffix(seg, path.Ext(seg))

	tokens := strings.Split(seg, "-")
	if len(tokens) <= 2 {
		return ""
	}
	return strings.Join(tokens[2:], "-")
}

// Matches reports whether key is a plausible replacement for a locator with
// the given base name.
func (m Matcher) Matches(base, key string) bool {
	if base == "" {
		return false
	}
	if strings.Contains(key, m.head(base)) {
		return true
	}
	// An empty key base name is contained in every base, so such keys match.
	return strings.Contains(base, m.head(BaseName(key)))
}

// Candidate returns the first key in listing order that matches locator.
func (m Matcher) Candidate(locator string, keys *KeySet) (string, bool) {
	base := BaseName(locator)
	if base == "" {
		return "", false
	}
	for _, key := range keys.Keys() {
		if m.Matches(base, key) {
			return key, true
		}
	}
	return "", false
}

// head returns the first PrefixLength runes of s.
func (m Matcher) head(s string) string {
	n := m.PrefixLength
	if n <= 0 {
		n = DefaultPrefixLength
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
