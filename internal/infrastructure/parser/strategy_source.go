package parser

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/isolate"
	"NewsDigest/internal/keyword"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/scanner"
)

// StatusDisabled marks a source skipped for missing credentials.
const StatusDisabled = "disabled"

// EnrichOptions bounds preview-image scraping per source.
type EnrichOptions struct {
	Workers int
	Timeout time.Duration
}

// StrategySource implements NewsSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	keywords keyword.Set
	logger   *slog.Logger

	workers     int
	scanTimeout time.Duration
	images      ports.ImageExtractor
	enrich      EnrichOptions
}

var _ ports.NewsSource = (*StrategySource)(nil)

// Option customizes a StrategySource.
type Option func(*StrategySource)

// WithWorkers bounds how many sites are scanned concurrently.
func WithWorkers(n int) Option {
	return func(s *StrategySource) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithScanTimeout bounds a single site scan.
func WithScanTimeout(d time.Duration) Option {
	return func(s *StrategySource) { s.scanTimeout = d }
}

// WithImageExtractor enables preview-image enrichment.
func WithImageExtractor(ex ports.ImageExtractor, opts EnrichOptions) Option {
	return func(s *StrategySource) {
		s.images = ex
		s.enrich = opts
	}
}

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, keywords keyword.Set, log *slog.Logger, opts ...Option) *StrategySource {
	s := &StrategySource{
		registry: reg,
		sites:    sites,
		keywords: keywords,
		logger:   log,
		workers:  4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collect runs every configured site behind an isolating boundary. Batches
// come back in site declaration order regardless of completion order.
func (s *StrategySource) Collect(ctx context.Context, req ports.CollectRequest) []ports.SourceBatch {
	batches := make([]ports.SourceBatch, len(s.sites))

	s.debug("collect", "sites", len(s.sites), "since", req.Since.Format(time.RFC3339))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, site := range s.sites {
		g.Go(func() error {
			batches[i] = s.collectSite(gctx, site, req)
			return nil
		})
	}
	_ = g.Wait()

	return batches
}

func (s *StrategySource) collectSite(ctx context.Context, site config.SiteConfig, req ports.CollectRequest) ports.SourceBatch {
	batch := ports.SourceBatch{Source: site.Name}

	if s.registry == nil {
		batch.Status, batch.Err = string(isolate.StatusFailed), errors.New("scanner registry is not configured")
		return batch
	}
	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		batch.Status, batch.Err = string(isolate.StatusFailed), err
		s.warn("source misconfigured", "site", site.Name, "error", err)
		return batch
	}

	scanReq := scanner.Request{
		Since:      req.Since,
		SiteName:   site.Name,
		Options:    site.Options,
		Categories: toScannerCategories(site.Categories),
		Keywords:   s.keywords,
		MaxResults: site.MaxResults,
	}

	s.debug("process site", "site", site.Name, "scanner", site.Scanner, "categories", len(site.Categories))
	res := isolate.Do(ctx, s.scanTimeout, func(c context.Context) ([]domain.NewsItem, error) {
		return strategy.Scan(c, scanReq)
	}, func(items []domain.NewsItem) bool { return len(items) == 0 })

	batch.Items, batch.Err, batch.Status = res.Value, res.Err, string(res.Status)
	for i := range batch.Items {
		if batch.Items[i].Source == "" {
			batch.Items[i].Source = site.Name
		}
	}

	switch {
	case errors.Is(res.Err, scanner.ErrDisabled):
		batch.Status = StatusDisabled
		s.warn("source disabled", "site", site.Name, "reason", res.Err)
	case res.Failed():
		s.warn("source failed", "site", site.Name, "error", res.Err, "partial_items", len(batch.Items), "duration", res.Duration)
	default:
		s.debug("site produced items", "site", site.Name, "count", len(batch.Items), "duration", res.Duration)
	}

	s.enrichImages(ctx, site.Name, batch.Items, req.Known)
	return batch
}

// enrichImages fills missing preview images in place. Items already in
// history are skipped before any network call; a failed lookup leaves the
// image empty.
func (s *StrategySource) enrichImages(ctx context.Context, site string, items []domain.NewsItem, known func(string) bool) {
	if s.images == nil || len(items) == 0 {
		return
	}

	workers := s.enrich.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		wg    sync.WaitGroup
		sem   = make(chan struct{}, workers)
		fails int
		mu    sync.Mutex
	)
	for i := range items {
		if items[i].HasImage() || (known != nil && known(items[i].Link)) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(item *domain.NewsItem) {
			defer wg.Done()
			defer func() { <-sem }()

			res := isolate.Do(ctx, s.enrich.Timeout, func(c context.Context) (string, error) {
				return s.images.PreviewImage(c, item.Link)
			}, nil)
			if res.Failed() {
				mu.Lock()
				fails++
				mu.Unlock()
				s.debug("preview image failed", "site", site, "link", item.Link, "error", res.Err)
				return
			}
			item.ImageURL = res.Value
		}(&items[i])
	}
	wg.Wait()

	if fails > 0 {
		s.debug("preview enrichment finished with failures", "site", site, "failures", fails)
	}
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
