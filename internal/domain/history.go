package domain

// LinkSet is the set of links that were delivered in earlier runs.
type LinkSet map[string]struct{}

// NewLinkSet builds a set from the given links, ignoring blanks.
func NewLinkSet(links ...string) LinkSet {
	set := make(LinkSet, len(links))
	for _, l := range links {
		set.Add(l)
	}
	return set
}

// Add inserts a link; empty links are ignored.
func (s LinkSet) Add(link string) {
	if link == "" {
		return
	}
	s[link] = struct{}{}
}

// Has reports whether the link is present. A nil set contains nothing.
func (s LinkSet) Has(link string) bool {
	if s == nil {
		return false
	}
	_, ok := s[link]
	return ok
}

// Len returns the number of links in the set.
func (s LinkSet) Len() int {
	return len(s)
}
