package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

const (
	arxivBaseURL = "https://arxiv.org"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls arXiv listing pages and keeps papers announced since
// the request lower bound that match the keyword set.
type ArxivScanner struct {
	client    *http.Client
	userAgent string
	pageSize  int
}

// NewArxivScanner wires an HTTP client; pageSize defaults to 200.
func NewArxivScanner(client *http.Client, userAgent string) *ArxivScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = "NewsDigest/1.0"
	}
	return &ArxivScanner{client: client, userAgent: userAgent, pageSize: 200}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

type arxivEntry struct {
	ID          string
	Title       string
	Abstract    string
	URL         string
	PublishedAt time.Time
}

// Scan walks through each category URL. A failing category does not discard
// what the previous ones produced.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsItem, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	sinceDay := req.Since.UTC().Truncate(24 * time.Hour)
	results := make([]domain.NewsItem, 0)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		skip := 0
		for {
			pageURL, err := buildPageURL(cat.URL, skip, a.pageSize)
			if err != nil {
				return results, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return results, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			entries, shouldContinue := a.extractEntries(doc, sinceDay)
			for _, entry := range entries {
				if _, ok := seen[entry.ID]; ok {
					continue
				}
				seen[entry.ID] = struct{}{}

				item, ok := req.Accept(entry.Title, entry.URL, entry.Abstract)
				if !ok {
					continue
				}
				item.Source = sourceName(req.SiteName, cat.Name)
				item.PublishedAt = entry.PublishedAt
				results = append(results, item)
			}

			if !shouldContinue || (req.MaxResults > 0 && len(results) >= req.MaxResults) {
				break
			}
			skip += a.pageSize
		}
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	return results, nil
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := get(ctx, a.client, pageURL, a.userAgent, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (a *ArxivScanner) extractEntries(doc *goquery.Document, sinceDay time.Time) ([]arxivEntry, bool) {
	var (
		collected    []arxivEntry
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		entry, ok := parseEntry(dt, dd)
		if !ok {
			return true
		}

		entryDay := entry.PublishedAt.UTC().Truncate(24 * time.Hour)
		if entryDay.Before(sinceDay) {
			continueScan = false
			return false
		}
		collected = append(collected, entry)
		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseEntry(dt, dd *goquery.Selection) (arxivEntry, bool) {
	anchor := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := anchor.Attr("href")
	if href == "" {
		return arxivEntry{}, false
	}

	id := strings.TrimSpace(anchor.Text())
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:"))

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	return arxivEntry{
		ID:          id,
		Title:       title,
		Abstract:    summary,
		URL:         href,
		PublishedAt: publishedAt,
	}, true
}

func sourceName(site, category string) string {
	if category == "" {
		return site
	}
	return fmt.Sprintf("%s/%s", site, category)
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
