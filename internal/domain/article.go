package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// SummaryDisplayLength bounds the summary shown in digests, counted in runes.
	SummaryDisplayLength = 150
	// NoSummary replaces summaries that are empty after HTML stripping.
	NoSummary = "요약 없음"
)

// NewsItem is a single discovered article. Link is its identity across
// history, dedup and delivery.
type NewsItem struct {
	Title       string
	Link        string
	Summary     string
	ImageURL    string
	Source      string
	Keyword     string
	PublishedAt time.Time
}

// HasImage reports whether a preview image was resolved for the item.
func (n NewsItem) HasImage() bool {
	return n.ImageURL != ""
}

// SearchText is the text the keyword filter is evaluated against.
func SearchText(title, summary string) string {
	return title + " " + summary
}

// NormalizeTitle collapses runs of whitespace and trims the result.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

// TruncateSummary cuts the summary to SummaryDisplayLength runes and appends
// an ellipsis. The cut is not word-aware: it may land mid-word.
func TruncateSummary(summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = NoSummary
	}
	if utf8.RuneCountInString(summary) > SummaryDisplayLength {
		summary = string([]rune(summary)[:SummaryDisplayLength])
	}
	return summary + "..."
}

// RunResult is the ordered outcome of one run, before delivery.
type RunResult struct {
	Items     []NewsItem
	Narrative string
}

// Links returns the identity keys of the result in order.
func (r RunResult) Links() []string {
	links := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		links = append(links, item.Link)
	}
	return links
}

// Digest is the payload handed to every delivery sink.
type Digest struct {
	Subject   string
	Date      time.Time
	Items     []NewsItem
	Narrative string
}

// DateLabel formats the digest date the way subjects and templates print it.
func (d Digest) DateLabel() string {
	return d.Date.Format("2006-01-02")
}

// Briefing is the structured narrative returned by a ranker.
type Briefing struct {
	Headline string   `json:"headline"`
	Bullets  []string `json:"bullets"`
}

// Text renders the briefing as plain text: headline, then one "- " line per bullet.
func (b Briefing) Text() string {
	var lines []string
	if h := strings.TrimSpace(b.Headline); h != "" {
		lines = append(lines, h)
	}
	for _, bullet := range b.Bullets {
		if bullet = strings.TrimSpace(bullet); bullet != "" {
			lines = append(lines, "- "+bullet)
		}
	}
	return strings.Join(lines, "\n")
}
