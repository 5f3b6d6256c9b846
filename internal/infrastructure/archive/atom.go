// Package archive keeps a rolling Atom feed of delivered digests on disk.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"
	"github.com/mmcdole/gofeed"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	// DefaultMaxEntries bounds the feed when the config leaves it unset.
	DefaultMaxEntries = 200
	defaultFeedLink   = "urn:newsdigest:archive"
	feedTitle         = "NewsDigest"
)

// AtomSink prepends each digest to an Atom file and trims the oldest entries.
type AtomSink struct {
	path       string
	feedLink   string
	maxEntries int
}

var _ ports.LocalSink = (*AtomSink)(nil)

// NewAtomSink creates a sink writing to path.
func NewAtomSink(path, feedLink string, maxEntries int) *AtomSink {
	if feedLink == "" {
		feedLink = defaultFeedLink
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &AtomSink{path: path, feedLink: feedLink, maxEntries: maxEntries}
}

// Name identifies the sink in logs and reports.
func (a *AtomSink) Name() string {
	return "archive"
}

// Local reports that the archive is a local record, not a delivery channel.
func (a *AtomSink) Local() bool {
	return true
}

// Deliver merges the digest into the feed file. An unreadable existing
// feed is an error; the file is never overwritten with a partial history.
func (a *AtomSink) Deliver(ctx context.Context, digest domain.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := a.readEntries(ctx)
	if err != nil {
		return err
	}

	entries := make([]*feeds.Item, 0, len(digest.Items)+len(existing))
	seen := make(map[string]struct{}, cap(entries))
	add := func(item *feeds.Item) {
		if len(entries) >= a.maxEntries {
			return
		}
		if _, dup := seen[item.Link.Href]; dup {
			return
		}
		seen[item.Link.Href] = struct{}{}
		entries = append(entries, item)
	}
	for _, item := range digest.Items {
		add(newEntry(item, digest.Date))
	}
	for _, item := range existing {
		add(item)
	}

	updated := digest.Date
	if updated.IsZero() {
		updated = time.Now()
	}
	feed := &feeds.Feed{
		Title:       feedTitle,
		Link:        &feeds.Link{Href: a.feedLink},
		Description: digest.Subject,
		Id:          a.feedLink,
		Updated:     updated,
		Items:       entries,
	}
	atom, err := feed.ToAtom()
	if err != nil {
		return fmt.Errorf("encode atom feed: %w", err)
	}
	return writeAtomic(a.path, []byte(atom))
}

func newEntry(item domain.NewsItem, date time.Time) *feeds.Item {
	published := item.PublishedAt
	if published.IsZero() {
		published = date
	}
	return &feeds.Item{
		Title:       item.Title,
		Link:        &feeds.Link{Href: item.Link},
		Id:          item.Link,
		Description: item.Summary,
		Created:     published,
		Updated:     published,
	}
}

func (a *AtomSink) readEntries(ctx context.Context) ([]*feeds.Item, error) {
	f, err := os.Open(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", a.path, err)
	}
	defer f.Close()

	parsed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse archive %s: %w", a.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]*feeds.Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it.Link == "" {
			continue
		}
		var ts time.Time
		switch {
		case it.UpdatedParsed != nil:
			ts = *it.UpdatedParsed
		case it.PublishedParsed != nil:
			ts = *it.PublishedParsed
		}
		items = append(items, &feeds.Item{
			Title:       it.Title,
			Link:        &feeds.Link{Href: it.Link},
			Id:          it.Link,
			Description: it.Description,
			Created:     ts,
			Updated:     ts,
		})
	}
	return items, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".archive-*.xml")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace archive: %w", err)
	}
	return nil
}
