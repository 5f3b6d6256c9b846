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
	defaultNaverEndpoint = "https://openapi.naver.com/v1/search/news.json"
	naverMaxDisplay      = 100
	naverMaxStart        = 1000
)

// NaverScanner queries the Naver news search API.
type NaverScanner struct {
	client       *http.Client
	endpoint     string
	clientID     string
	clientSecret string
	userAgent    string
}

// NewNaverScanner wires the search client. Missing credentials disable the adapter.
func NewNaverScanner(client *http.Client, endpoint, clientID, clientSecret, userAgent string) *NaverScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if endpoint == "" {
		endpoint = defaultNaverEndpoint
	}
	return &NaverScanner{
		client:       client,
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
	}
}

// Name identifies the strategy inside the registry.
func (n *NaverScanner) Name() string {
	return "naver"
}

type naverResponse struct {
	Total   int `json:"total"`
	Start   int `json:"start"`
	Display int `json:"display"`
	Items   []struct {
		Title        string `json:"title"`
		OriginalLink string `json:"originallink"`
		Link         string `json:"link"`
		Description  string `json:"description"`
		PubDate      string `json:"pubDate"`
	} `json:"items"`
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}

// Scan pages through results sorted by date and stops once entries older than
// Since show up or MaxResults entries were inspected.
func (n *NaverScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsItem, error) {
	if n.clientID == "" || n.clientSecret == "" {
		return nil, fmt.Errorf("naver: client id/secret missing: %w", scanner.ErrDisabled)
	}
	query := naverQuery(req.Keywords.Phrases())
	if query == "" {
		return nil, nil
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = naverMaxDisplay
	}
	display := min(maxResults, naverMaxDisplay)

	var results []domain.NewsItem
	for start := 1; start <= naverMaxStart && start <= maxResults; {
		want := min(display, maxResults-start+1)
		resp, err := n.fetchPage(ctx, query, start, want)
		if err != nil {
			return results, fmt.Errorf("start %d: %w", start, err)
		}

		reachedOld := false
		for _, entry := range resp.Items {
			published, err := time.Parse(time.RFC1123Z, entry.PubDate)
			if err != nil {
				continue
			}
			if !req.Since.IsZero() && published.Before(req.Since) {
				reachedOld = true
				continue
			}

			link := strings.TrimSpace(entry.OriginalLink)
			if link == "" {
				link = strings.TrimSpace(entry.Link)
			}
			item, ok := req.Accept(htmlToText(entry.Title), link, htmlToText(entry.Description))
			if !ok {
				continue
			}
			item.PublishedAt = published
			results = append(results, item)
		}

		if reachedOld || len(resp.Items) < want || start+want > resp.Total {
			break
		}
		start += want
	}
	return results, nil
}

func (n *NaverScanner) fetchPage(ctx context.Context, query string, start, display int) (*naverResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(display))
	params.Set("start", strconv.Itoa(start))
	params.Set("sort", "date")

	body, err := get(ctx, n.client, n.endpoint+"?"+params.Encode(), n.userAgent, http.Header{
		"X-Naver-Client-Id":     {n.clientID},
		"X-Naver-Client-Secret": {n.clientSecret},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp naverResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.ErrorCode != "" {
		return nil, fmt.Errorf("naver %s: %s", resp.ErrorCode, resp.ErrorMessage)
	}
	return &resp, nil
}

// naverQuery OR-joins phrases with the "|" operator, quoting multi-word phrases.
func naverQuery(phrases []string) string {
	parts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(strings.ReplaceAll(p, `"`, ""))
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, " \t") {
			p = `"` + p + `"`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " | ")
}
