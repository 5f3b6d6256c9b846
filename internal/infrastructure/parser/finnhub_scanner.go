package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

type marketNewsFunc func(ctx context.Context, category string) ([]finnhub.MarketNews, error)

// FinnhubScanner pulls market news through the Finnhub API.
type FinnhubScanner struct {
	fetch   marketNewsFunc
	enabled bool
}

// NewFinnhubScanner wires the Finnhub client. An empty key disables the adapter.
func NewFinnhubScanner(client *http.Client, apiKey string) *FinnhubScanner {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	if client != nil {
		cfg.HTTPClient = client
	}
	api := finnhub.NewAPIClient(cfg).DefaultApi

	return &FinnhubScanner{
		enabled: apiKey != "",
		fetch: func(ctx context.Context, category string) ([]finnhub.MarketNews, error) {
			news, _, err := api.MarketNews(ctx).Category(category).Execute()
			return news, err
		},
	}
}

// Name identifies the strategy inside the registry.
func (f *FinnhubScanner) Name() string {
	return "finnhub"
}

// Scan fetches the configured category (option "category", default general)
// and keeps entries published since req.Since.
func (f *FinnhubScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsItem, error) {
	if !f.enabled {
		return nil, fmt.Errorf("finnhub: api key missing: %w", scanner.ErrDisabled)
	}

	news, err := f.fetch(ctx, req.Option("category", "general"))
	if err != nil {
		return nil, fmt.Errorf("market news: %w", err)
	}
	return convertMarketNews(news, req), nil
}

func convertMarketNews(news []finnhub.MarketNews, req scanner.Request) []domain.NewsItem {
	var results []domain.NewsItem
	for _, n := range news {
		if req.MaxResults > 0 && len(results) >= req.MaxResults {
			break
		}

		var published time.Time
		if n.Datetime != nil {
			published = time.Unix(*n.Datetime, 0)
		}
		if !req.Since.IsZero() && !published.IsZero() && published.Before(req.Since) {
			continue
		}

		item, ok := req.Accept(deref(n.Headline), strings.TrimSpace(deref(n.Url)), htmlToText(deref(n.Summary)))
		if !ok {
			continue
		}
		item.PublishedAt = published
		item.ImageURL = resolveURL(item.Link, deref(n.Image))
		results = append(results, item)
	}
	return results
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
