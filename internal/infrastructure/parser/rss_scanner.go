package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

const defaultFeedWindow = 30

// RSSScanner reads RSS/Atom feeds listed as site categories.
type RSSScanner struct {
	client    *http.Client
	userAgent string
}

// NewRSSScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewRSSScanner(client *http.Client, userAgent string) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSScanner{client: client, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan reads every feed of the site. A broken feed is skipped and its error
// reported alongside the items of the healthy feeds.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsItem, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no feeds provided for site %s", req.SiteName)
	}

	window := req.MaxResults
	if window <= 0 {
		window = defaultFeedWindow
	}

	var (
		results []domain.NewsItem
		errs    []error
	)
	for _, cat := range req.Categories {
		feed, err := r.fetchFeed(ctx, cat.URL)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", cat.Name, err))
			continue
		}
		results = append(results, extractFeedItems(feed, req, cat, window)...)
	}

	return results, errors.Join(errs...)
}

func (r *RSSScanner) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, err := get(ctx, r.client, feedURL, r.userAgent, http.Header{
		"Accept": {"application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// extractFeedItems keeps the newest window entries that pass the keyword filter.
func extractFeedItems(feed *gofeed.Feed, req scanner.Request, cat scanner.Category, window int) []domain.NewsItem {
	entries := make([]*gofeed.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry != nil {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entryTime(entries[i]).After(entryTime(entries[j]))
	})
	if len(entries) > window {
		entries = entries[:window]
	}

	items := make([]domain.NewsItem, 0, len(entries))
	for _, entry := range entries {
		link := strings.TrimSpace(entry.Link)
		if link == "" && isLink(entry.GUID) {
			link = strings.TrimSpace(entry.GUID)
		}

		raw := entry.Description
		if strings.TrimSpace(raw) == "" {
			raw = entry.Content
		}

		item, ok := req.Accept(entry.Title, link, htmlToText(raw))
		if !ok {
			continue
		}
		if cat.Name != "" {
			item.Source = req.SiteName + "/" + cat.Name
		}
		item.PublishedAt = entryTime(entry)
		item.ImageURL = entryImage(entry, link)
		items = append(items, item)
	}
	return items
}

// entryTime returns the published (or updated) time; zero when absent.
func entryTime(entry *gofeed.Item) time.Time {
	switch {
	case entry.PublishedParsed != nil:
		return *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		return *entry.UpdatedParsed
	default:
		return time.Time{}
	}
}

func entryImage(entry *gofeed.Item, link string) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return resolveURL(link, entry.Image.URL)
	}
	for _, enc := range entry.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return resolveURL(link, enc.URL)
		}
	}
	return ""
}

func isLink(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
