// Package keyword implements the coarse relevance filter shared by all sources.
package keyword

import "strings"

// Set is an ordered, case-insensitive list of phrases. Phrases are matched as
// literal substrings, so multi-word phrases are never tokenized.
type Set struct {
	phrases []string
	lowered []string
}

// New builds a set, trimming phrases and dropping blanks and duplicates while
// keeping the first occurrence's position.
func New(phrases ...string) Set {
	var s Set
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		s.phrases = append(s.phrases, trimmed)
		s.lowered = append(s.lowered, lower)
	}
	return s
}

// Parse splits a comma-separated list into a set.
func Parse(csv string) Set {
	return New(strings.Split(csv, ",")...)
}

// Match returns the first phrase contained in text. The scan stops at the
// first hit.
func (s Set) Match(text string) (string, bool) {
	if len(s.lowered) == 0 {
		return "", false
	}
	lowerText := strings.ToLower(text)
	for i, kw := range s.lowered {
		if strings.Contains(lowerText, kw) {
			return s.phrases[i], true
		}
	}
	return "", false
}

// Phrases returns the phrases in configuration order.
func (s Set) Phrases() []string {
	out := make([]string, len(s.phrases))
	copy(out, s.phrases)
	return out
}

// Len returns the number of phrases.
func (s Set) Len() int {
	return len(s.phrases)
}

// Empty reports whether the set has no phrases.
func (s Set) Empty() bool {
	return len(s.phrases) == 0
}
