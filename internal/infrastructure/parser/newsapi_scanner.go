package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

const (
	defaultNewsAPIEndpoint = "https://newsapi.org/v2/everything"
	newsAPIMaxPageSize     = 100
)

// NewsAPIScanner queries the NewsAPI /v2/everything endpoint.
type NewsAPIScanner struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	userAgent string
}

// NewNewsAPIScanner wires the search client. An empty key disables the adapter.
func NewNewsAPIScanner(client *http.Client, endpoint, apiKey, userAgent string) *NewsAPIScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if endpoint == "" {
		endpoint = defaultNewsAPIEndpoint
	}
	return &NewsAPIScanner{client: client, endpoint: endpoint, apiKey: apiKey, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (n *NewsAPIScanner) Name() string {
	return "newsapi"
}

type newsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Scan pages through results until MaxResults entries were inspected or the
// provider runs out of results.
func (n *NewsAPIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsItem, error) {
	if n.apiKey == "" {
		return nil, fmt.Errorf("newsapi: api key missing: %w", scanner.ErrDisabled)
	}
	query := newsAPIQuery(req.Keywords.Phrases())
	if query == "" {
		return nil, nil
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = newsAPIMaxPageSize
	}
	pageSize := min(maxResults, newsAPIMaxPageSize)

	var results []domain.NewsItem
	seen := 0
	for page := 1; seen < maxResults; page++ {
		resp, err := n.fetchPage(ctx, req, query, page, pageSize)
		if err != nil {
			return results, fmt.Errorf("page %d: %w", page, err)
		}

		// pages are offset by pageSize, so the last page is fetched whole
		// and only its first maxResults-seen entries are inspected
		for _, a := range resp.Articles {
			if seen >= maxResults {
				break
			}
			seen++
			item, ok := req.Accept(a.Title, strings.TrimSpace(a.URL), htmlToText(a.Description))
			if !ok {
				continue
			}
			if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				item.PublishedAt = ts
			}
			item.ImageURL = resolveURL(item.Link, a.URLToImage)
			results = append(results, item)
		}

		if seen >= maxResults || len(resp.Articles) < pageSize || page*pageSize >= resp.TotalResults {
			break
		}
	}
	return results, nil
}

func (n *NewsAPIScanner) fetchPage(ctx context.Context, req scanner.Request, query string, page, pageSize int) (*newsAPIResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", req.Option("sortBy", "publishedAt"))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))
	if !req.Since.IsZero() {
		params.Set("from", req.Since.UTC().Format(time.RFC3339))
	}
	if lang := req.Option("language", ""); lang != "" {
		params.Set("language", lang)
	}

	body, err := get(ctx, n.client, n.endpoint+"?"+params.Encode(), n.userAgent, http.Header{
		"X-Api-Key": {n.apiKey},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp newsAPIResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi %s: %s", resp.Code, resp.Message)
	}
	return &resp, nil
}

// newsAPIQuery quotes every phrase and OR-joins them.
func newsAPIQuery(phrases []string) string {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ReplaceAll(p, `"`, "")
		if p = strings.TrimSpace(p); p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return strings.Join(quoted, " OR ")
}
