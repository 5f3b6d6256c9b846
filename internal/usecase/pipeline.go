package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/render"
)

// DefaultLookback bounds collection when no lookback is configured.
const DefaultLookback = 24 * time.Hour

// Curator narrows the aggregated items; it must never fail.
type Curator interface {
	Curate(ctx context.Context, items []domain.NewsItem) domain.RunResult
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source  ports.NewsSource
	History ports.HistoryStore
	Curator Curator
	Sinks   []ports.Sink

	Lookback        time.Duration
	SubjectFormat   string
	DeliveryTimeout time.Duration
	Logger          *slog.Logger
}

// Pipeline implements the collect, dedup, curate, deliver workflow.
type Pipeline struct {
	source   ports.NewsSource
	history  ports.HistoryStore
	curator  Curator
	sinks    []ports.Sink
	lookback time.Duration
	subject  string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	lookback := deps.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:   deps.Source,
		history:  deps.History,
		curator:  deps.Curator,
		sinks:    deps.Sinks,
		lookback: lookback,
		subject:  deps.SubjectFormat,
		timeout:  deps.DeliveryTimeout,
		logger:   logger,
	}
}

// SourceOutcome summarizes one source batch.
type SourceOutcome struct {
	Source string
	Status string
	Items  int
	Err    error
}

// RunReport summarizes one run for logs and the CLI.
type RunReport struct {
	RunID          string
	StartedAt      time.Time
	Sources        []SourceOutcome
	Collected      int
	New            int
	Curated        int
	Narrative      bool
	Delivery       DispatchReport
	HistoryWritten bool
}

// Run executes one pass. Only a failing history load or append is returned
// as an error; every other failure degrades inside the run.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString(), StartedAt: now}
	log := p.logger.With("run_id", report.RunID)

	if p.source == nil || p.history == nil {
		return report, fmt.Errorf("pipeline misconfigured: source and history are required")
	}

	history, err := p.history.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load history: %w", err)
	}
	log.Info("run started", "history", history.Len(), "sinks", len(p.sinks))

	batches := p.source.Collect(ctx, ports.CollectRequest{
		Since: now.Add(-p.lookback),
		Known: history.Has,
	})
	report.Sources = lo.Map(batches, func(b ports.SourceBatch, _ int) SourceOutcome {
		return SourceOutcome{Source: b.Source, Status: b.Status, Items: len(b.Items), Err: b.Err}
	})
	report.Collected = lo.SumBy(batches, func(b ports.SourceBatch) int { return len(b.Items) })

	items := Aggregate(lo.Map(batches, func(b ports.SourceBatch, _ int) []domain.NewsItem {
		return b.Items
	}), history)
	report.New = len(items)
	log.Info("collection finished", "collected", report.Collected, "new", report.New)

	if len(items) == 0 {
		log.Info("발송할 뉴스가 없습니다")
		return report, nil
	}

	result := domain.RunResult{Items: items}
	if p.curator != nil {
		result = p.curator.Curate(ctx, items)
	}
	report.Curated = len(result.Items)
	report.Narrative = result.Narrative != ""
	if len(result.Items) == 0 {
		log.Info("발송할 뉴스가 없습니다")
		return report, nil
	}

	if len(p.sinks) == 0 {
		log.Warn("no delivery sinks configured, history left untouched", "items", len(result.Items))
		return report, nil
	}

	digest := domain.Digest{
		Subject:   render.Subject(p.subject, now),
		Date:      now,
		Items:     result.Items,
		Narrative: result.Narrative,
	}
	report.Delivery = Dispatch(ctx, p.sinks, digest, p.timeout, log)

	if !report.Delivery.Delivered() {
		log.Error("digest not delivered, history left untouched", "failed", report.Delivery.Failed())
		return report, nil
	}

	if err := p.history.Append(ctx, result.Links()); err != nil {
		log.Error("history append failed", "error", err)
		return report, fmt.Errorf("append history: %w", err)
	}
	report.HistoryWritten = true
	log.Info("run finished",
		"delivered", len(result.Items),
		"sinks_ok", report.Delivery.Succeeded(),
		"sinks_failed", len(report.Delivery.Failed()),
	)
	return report, nil
}
