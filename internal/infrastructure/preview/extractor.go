// Package preview resolves a representative image for an article page.
package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"NewsDigest/internal/ports"
)

const maxPageBytes = 4 << 20

var metaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[property="og:image:url"]`,
	`meta[name="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// Extractor scrapes og:image / twitter:image / first <img> from article pages.
type Extractor struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

var _ ports.ImageExtractor = (*Extractor)(nil)

// NewExtractor wires an HTTP client and a request rate (per second, <= 0 for
// unlimited).
func NewExtractor(client *http.Client, userAgent string, perSecond float64) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Extractor{
		client:    client,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// PreviewImage returns an absolute image URL or "" when the page has none.
func (e *Extractor) PreviewImage(ctx context.Context, articleURL string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	doc, err := e.fetchDoc(ctx, articleURL)
	if err != nil {
		return "", err
	}

	src := findImage(doc)
	if src == "" {
		return "", nil
	}
	return resolveAgainstOrigin(articleURL, src), nil
}

func (e *Extractor) fetchDoc(ctx context.Context, u string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %s", u, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func findImage(doc *goquery.Document) string {
	for _, sel := range metaSelectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		v, _ := img.Attr("src")
		v = strings.TrimSpace(v)
		if v == "" || strings.HasPrefix(v, "data:") {
			return true
		}
		src = v
		return false
	})
	return src
}

// resolveAgainstOrigin makes relative paths absolute using the article's
// scheme and host.
func resolveAgainstOrigin(articleURL, src string) string {
	base, err := url.Parse(articleURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	return origin.ResolveReference(ref).String()
}
