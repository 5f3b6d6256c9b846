package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// Client talks to a self-hosted inference service for ranking and briefing.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Ranker = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     httpClient,
	}
}

type rankItem struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func toRankItems(items []domain.NewsItem) []rankItem {
	out := make([]rankItem, 0, len(items))
	for i, item := range items {
		out = append(out, rankItem{Index: i, Title: item.Title, Summary: item.Summary})
	}
	return out
}

// Rank asks the service for the indices of the most relevant items.
func (c *Client) Rank(ctx context.Context, items []domain.NewsItem, limit int) ([]int, error) {
	payload := map[string]any{
		"items": toRankItems(items),
		"limit": limit,
	}

	var resp struct {
		Indices []int `json:"indices"`
	}
	if err := c.post(ctx, "/rank", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Indices, nil
}

// Brief requests a headline plus bullets over the curated items.
func (c *Client) Brief(ctx context.Context, items []domain.NewsItem) (string, error) {
	payload := map[string]any{
		"items": toRankItems(items),
	}

	var resp domain.Briefing
	if err := c.post(ctx, "/briefing", payload, &resp); err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
