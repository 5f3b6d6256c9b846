// Package curation narrows the aggregated items to a bounded top-N and
// optionally attaches a narrative. Every ranker failure degrades to a
// deterministic truncation.
package curation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/isolate"
	"NewsDigest/internal/ports"
)

const (
	// DefaultLimit is used when no positive limit is configured.
	DefaultLimit = 10
	// DefaultTimeout bounds each ranker call when no timeout is configured.
	DefaultTimeout = 60 * time.Second
)

// Stage applies a ranker with fallback. A nil ranker means curation is
// disabled: items are truncated and no narrative is produced.
type Stage struct {
	ranker    ports.Ranker
	limit     int
	timeout   time.Duration
	narrative bool
	logger    *slog.Logger
}

// NewStage wires the stage.
func NewStage(ranker ports.Ranker, limit int, timeout time.Duration, narrative bool, logger *slog.Logger) *Stage {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		ranker:    ranker,
		limit:     limit,
		timeout:   timeout,
		narrative: narrative,
		logger:    logger,
	}
}

// Limit returns the configured bound N.
func (s *Stage) Limit() int {
	return s.limit
}

// Curate returns at most Limit items and an optional narrative. It never fails.
func (s *Stage) Curate(ctx context.Context, items []domain.NewsItem) domain.RunResult {
	if len(items) == 0 {
		return domain.RunResult{}
	}
	if s.ranker == nil {
		return domain.RunResult{Items: Truncate(items, s.limit)}
	}

	res := isolate.Do(ctx, s.timeout, func(c context.Context) ([]int, error) {
		return s.ranker.Rank(c, items, s.limit)
	}, func(v []int) bool { return len(v) == 0 })

	var curated []domain.NewsItem
	switch {
	case res.Failed():
		s.logger.Warn("ranking failed, falling back to truncation", "error", res.Err, "duration", res.Duration)
		curated = Truncate(items, s.limit)
	default:
		curated = SelectIndices(items, res.Value, s.limit)
		if len(curated) == 0 {
			s.logger.Warn("ranker returned no usable indices, falling back to truncation", "raw", res.Value)
			curated = Truncate(items, s.limit)
		}
	}
	s.logger.Info("curation finished", "input", len(items), "selected", len(curated))

	result := domain.RunResult{Items: curated}
	if !s.narrative {
		return result
	}

	brief := isolate.Do(ctx, s.timeout, func(c context.Context) (string, error) {
		return s.ranker.Brief(c, curated)
	}, func(v string) bool { return strings.TrimSpace(v) == "" })
	if brief.Failed() {
		s.logger.Warn("briefing failed, sending without narrative", "error", brief.Err)
		return result
	}
	result.Narrative = strings.TrimSpace(brief.Value)
	return result
}

// Truncate returns the first n items in input order.
func Truncate(items []domain.NewsItem, n int) []domain.NewsItem {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		return append([]domain.NewsItem(nil), items...)
	}
	return append([]domain.NewsItem(nil), items[:n]...)
}

// SelectIndices maps ranker indices to items. Out-of-range and repeated
// indices are dropped; at most limit items are returned.
func SelectIndices(items []domain.NewsItem, indices []int, limit int) []domain.NewsItem {
	seen := make(map[int]struct{}, len(indices))
	out := make([]domain.NewsItem, 0, min(len(indices), limit))
	for _, idx := range indices {
		if len(out) >= limit {
			break
		}
		if idx < 0 || idx >= len(items) {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, items[idx])
	}
	return out
}
