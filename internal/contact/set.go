package contact

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// orderedSet keeps the first-seen form of each value, keyed by a normalized
// form so near-duplicates collapse.
type orderedSet struct {
	key   func(string) string
	seen  map[string]struct{}
	items []string
}

func newOrderedSet(key func(string) string) *orderedSet {
	return &orderedSet{key: key, seen: make(map[string]struct{})}
}

// Add inserts v and reports whether it was new.
func (s *orderedSet) Add(v string) bool {
	k := s.key(v)
	if k == "" {
		return false
	}
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Items returns at most limit items; limit <= 0 means all.
func (s *orderedSet) Items(limit int) []string {
	if limit <= 0 || len(s.items) <= limit {
		return append([]string(nil), s.items...)
	}
	return append([]string(nil), s.items[:limit]...)
}

// normalize applies NFC and collapses whitespace runs.
func normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func emailKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// phoneKey reduces a phone number to its digits, mapping +66 to the
// domestic trunk prefix.
func phoneKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if strings.HasPrefix(s, "+") && strings.HasPrefix(d, "66") {
		d = "0" + d[2:]
	}
	return d
}

func nameKey(s string) string { return normalize(s) }

// URLKey normalizes a URL for deduplication: lowercase scheme and host, no
// fragment, no trailing slash.
func URLKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(raw), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
