package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/keyword"
)

// ErrDisabled is returned by adapters whose credentials are not configured.
var ErrDisabled = errors.New("source disabled")

// Category describes a concrete endpoint provided by config (feed URL, listing page).
type Category struct {
	Name string
	URL  string
}

// Request carries all parameters required to execute a scan.
type Request struct {
	Since      time.Time
	SiteName   string
	Categories []Category
	Options    map[string]string
	Keywords   keyword.Set
	MaxResults int
}

// Accept applies the keyword filter to an entry and, on a hit, builds the
// candidate item. Non-matching entries are never materialized.
func (r Request) Accept(title, link, summary string) (domain.NewsItem, bool) {
	title = domain.NormalizeTitle(title)
	if title == "" || link == "" {
		return domain.NewsItem{}, false
	}
	kw, ok := r.Keywords.Match(domain.SearchText(title, summary))
	if !ok {
		return domain.NewsItem{}, false
	}
	return domain.NewsItem{
		Title:   title,
		Link:    link,
		Summary: domain.TruncateSummary(summary),
		Source:  r.SiteName,
		Keyword: kw,
	}, true
}

// Option returns a string option or def when it is unset.
func (r Request) Option(key, def string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// Scanner captures a single strategy implementation (RSS, NewsAPI, Naver, ...).
// Scan returns whatever it collected along with the first error it hit.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.NewsItem, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
