package ports

import (
	"context"
	"time"

	"NewsDigest/internal/domain"
)

// NewsSource pulls fresh candidates from every configured upstream provider.
type NewsSource interface {
	Collect(ctx context.Context, req CollectRequest) []SourceBatch
}

// CollectRequest carries run-wide collection parameters.
type CollectRequest struct {
	Since time.Time
	// Known reports whether a link was already delivered; sources consult it
	// before spending any enrichment call on an item.
	Known func(link string) bool
}

// SourceBatch is the isolated outcome of one source adapter.
type SourceBatch struct {
	Source string
	Items  []domain.NewsItem
	Status string
	Err    error
}

// HistoryStore persists the links of delivered items across runs.
type HistoryStore interface {
	Load(ctx context.Context) (domain.LinkSet, error)
	Append(ctx context.Context, links []string) error
}

// ImageExtractor resolves a representative image for an article page.
type ImageExtractor interface {
	PreviewImage(ctx context.Context, articleURL string) (string, error)
}

// Ranker selects and narrates the most relevant items.
type Ranker interface {
	// Rank returns indices into items, best first. The result is untrusted.
	Rank(ctx context.Context, items []domain.NewsItem, limit int) ([]int, error)
	// Brief produces a short human-readable narrative over items.
	Brief(ctx context.Context, items []domain.NewsItem) (string, error)
}

// ChatClient sends a single prompt to an LLM API and returns the raw reply.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Sink delivers a digest over one channel (mail, webhook, feed file).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, digest domain.Digest) error
}

// LocalSink is a sink that only keeps a local record of the digest (an
// archive file). Its success alone does not count as delivery while a remote
// sink is configured.
type LocalSink interface {
	Sink
	Local() bool
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
