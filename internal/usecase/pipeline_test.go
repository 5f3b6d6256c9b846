package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"NewsDigest/internal/curation"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

var runDate = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func item(link string) domain.NewsItem {
	return domain.NewsItem{Title: "title " + link, Link: link, Summary: "요약..."}
}

type fakeSource struct {
	batches []ports.SourceBatch
	lastReq ports.CollectRequest
}

func (f *fakeSource) Collect(_ context.Context, req ports.CollectRequest) []ports.SourceBatch {
	f.lastReq = req
	var out []ports.SourceBatch
	for _, b := range f.batches {
		var kept []domain.NewsItem
		for _, it := range b.Items {
			if req.Known == nil || !req.Known(it.Link) {
				kept = append(kept, it)
			}
		}
		out = append(out, ports.SourceBatch{Source: b.Source, Items: kept, Status: b.Status, Err: b.Err})
	}
	return out
}

type memoryHistory struct {
	mu        sync.Mutex
	links     []string
	loadErr   error
	appendErr error
	appends   int
}

func (m *memoryHistory) Load(context.Context) (domain.LinkSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return domain.NewLinkSet(m.links...), nil
}

func (m *memoryHistory) Append(_ context.Context, links []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	if m.appendErr != nil {
		return m.appendErr
	}
	m.links = append(m.links, links...)
	return nil
}

type recordingSink struct {
	name    string
	err     error
	panics  bool
	digests []domain.Digest
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Deliver(_ context.Context, d domain.Digest) error {
	if r.panics {
		panic("sink exploded")
	}
	r.digests = append(r.digests, d)
	return r.err
}

func newTestPipeline(src ports.NewsSource, hist ports.HistoryStore, curator Curator, sinks ...ports.Sink) *Pipeline {
	return NewPipeline(PipelineDeps{
		Source:          src,
		History:         hist,
		Curator:         curator,
		Sinks:           sinks,
		DeliveryTimeout: time.Second,
		Logger:          quietLogger(),
	})
}

func TestRunDedupesAndRecordsHistory(t *testing.T) {
	t.Parallel()

	a, b := item("u1"), item("u2")
	dup := item("u1")
	dup.Title = "duplicate"
	src := &fakeSource{batches: []ports.SourceBatch{
		{Source: "rss", Items: []domain.NewsItem{a, b}, Status: "ok"},
		{Source: "naver", Items: []domain.NewsItem{dup}, Status: "ok"},
	}}
	hist := &memoryHistory{}
	sink := &recordingSink{name: "mail"}

	report, err := newTestPipeline(src, hist, nil, sink).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.digests) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sink.digests))
	}
	got := sink.digests[0].Items
	if len(got) != 2 || got[0].Link != "u1" || got[1].Link != "u2" || got[0].Title != "title u1" {
		t.Fatalf("unexpected items: %+v", got)
	}
	if len(hist.links) != 2 {
		t.Fatalf("expected history {u1,u2}, got %v", hist.links)
	}
	if !report.HistoryWritten || report.Collected != 3 || report.New != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !src.lastReq.Since.Equal(runDate.Add(-DefaultLookback)) {
		t.Fatalf("unexpected since: %s", src.lastReq.Since)
	}
	if sink.digests[0].Subject != "[2024-05-01] 오늘의 AI/주식/머신러닝 뉴스" {
		t.Fatalf("unexpected subject: %s", sink.digests[0].Subject)
	}
}

func TestRunExcludesHistory(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{
		{Source: "rss", Items: []domain.NewsItem{item("u1"), item("u3")}},
	}}
	hist := &memoryHistory{links: []string{"u1"}}
	sink := &recordingSink{name: "mail"}

	if _, err := newTestPipeline(src, hist, nil, sink).Run(context.Background(), runDate); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := sink.digests[0].Items
	if len(got) != 1 || got[0].Link != "u3" {
		t.Fatalf("expected only u3, got %+v", got)
	}
	if src.lastReq.Known == nil || !src.lastReq.Known("u1") {
		t.Fatalf("sources must see history membership")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{
		{Source: "rss", Items: []domain.NewsItem{item("u1"), item("u2")}},
	}}
	hist := &memoryHistory{}
	sink := &recordingSink{name: "mail"}
	p := newTestPipeline(src, hist, nil, sink)

	if _, err := p.Run(context.Background(), runDate); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := p.Run(context.Background(), runDate.Add(time.Hour))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(sink.digests) != 1 {
		t.Fatalf("second run must not deliver, got %d deliveries", len(sink.digests))
	}
	if report.New != 0 || report.HistoryWritten {
		t.Fatalf("unexpected second report: %+v", report)
	}
	if hist.appends != 1 {
		t.Fatalf("history must be written once, got %d", hist.appends)
	}
}

type failingRanker struct{}

func (failingRanker) Rank(context.Context, []domain.NewsItem, int) ([]int, error) {
	return nil, errors.New("quota exceeded")
}

func (failingRanker) Brief(context.Context, []domain.NewsItem) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestRunCurationFallsBackToFirstN(t *testing.T) {
	t.Parallel()

	var items []domain.NewsItem
	for _, l := range []string{"u1", "u2", "u3", "u4"} {
		items = append(items, item(l))
	}
	src := &fakeSource{batches: []ports.SourceBatch{{Source: "rss", Items: items}}}
	hist := &memoryHistory{}
	sink := &recordingSink{name: "mail"}
	stage := curation.NewStage(failingRanker{}, 2, time.Second, true, quietLogger())

	report, err := newTestPipeline(src, hist, stage, sink).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := sink.digests[0]
	if len(got.Items) != 2 || got.Items[0].Link != "u1" || got.Items[1].Link != "u2" {
		t.Fatalf("expected first two items, got %+v", got.Items)
	}
	if got.Narrative != "" {
		t.Fatalf("narrative must be empty after failure")
	}
	if len(hist.links) != 2 || report.Curated != 2 {
		t.Fatalf("history must hold only curated links: %v", hist.links)
	}
}

func TestRunIsolatesSinkFailures(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{{Source: "rss", Items: []domain.NewsItem{item("u1")}}}}
	hist := &memoryHistory{}
	broken := &recordingSink{name: "slack", err: errors.New("500")}
	panicking := &recordingSink{name: "telegram", panics: true}
	ok := &recordingSink{name: "mail"}

	report, err := newTestPipeline(src, hist, nil, broken, panicking, ok).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ok.digests) != 1 {
		t.Fatalf("healthy sink must still deliver")
	}
	if report.Delivery.Succeeded() != 1 || len(report.Delivery.Failed()) != 2 {
		t.Fatalf("unexpected delivery report: %+v", report.Delivery)
	}
	if !report.HistoryWritten || len(hist.links) != 1 {
		t.Fatalf("history must be written after partial success")
	}
}

func TestRunAllSinksFailLeavesHistory(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{{Source: "rss", Items: []domain.NewsItem{item("u1")}}}}
	hist := &memoryHistory{}
	sink := &recordingSink{name: "mail", err: errors.New("smtp down")}

	report, err := newTestPipeline(src, hist, nil, sink).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.HistoryWritten || hist.appends != 0 {
		t.Fatalf("history must not be touched when every sink fails")
	}
}

func TestRunEmptyCollectionIsNoop(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{{Source: "rss", Status: "failed", Err: errors.New("timeout")}}}
	hist := &memoryHistory{}
	sink := &recordingSink{name: "mail"}

	report, err := newTestPipeline(src, hist, nil, sink).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.digests) != 0 || hist.appends != 0 {
		t.Fatalf("empty run must neither deliver nor write history")
	}
	if len(report.Sources) != 1 || report.Sources[0].Status != "failed" {
		t.Fatalf("source outcome must be reported: %+v", report.Sources)
	}
}

func TestRunWithoutSinksLeavesHistory(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{{Source: "rss", Items: []domain.NewsItem{item("u1")}}}}
	hist := &memoryHistory{}

	if _, err := newTestPipeline(src, hist, nil).Run(context.Background(), runDate); err != nil {
		t.Fatalf("run: %v", err)
	}
	if hist.appends != 0 {
		t.Fatalf("history must not be written without sinks")
	}
}

func TestRunHistoryErrors(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{{Source: "rss", Items: []domain.NewsItem{item("u1")}}}}
	sink := &recordingSink{name: "mail"}

	loadFail := &memoryHistory{loadErr: errors.New("connection refused")}
	if _, err := newTestPipeline(src, loadFail, nil, sink).Run(context.Background(), runDate); err == nil {
		t.Fatalf("history load failure must abort the run")
	}
	if len(sink.digests) != 0 {
		t.Fatalf("nothing may be delivered without history")
	}

	appendFail := &memoryHistory{appendErr: errors.New("disk full")}
	report, err := newTestPipeline(src, appendFail, nil, sink).Run(context.Background(), runDate)
	if err == nil {
		t.Fatalf("append failure must be reported")
	}
	if report.HistoryWritten || len(sink.digests) != 1 {
		t.Fatalf("delivery happens before append: %+v", report)
	}
}

type localSink struct{ recordingSink }

func (*localSink) Local() bool { return true }

func TestRunLocalSinkAloneIsNotDelivery(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{{Source: "rss", Items: []domain.NewsItem{item("u1")}}}}
	hist := &memoryHistory{}
	archive := &localSink{recordingSink{name: "archive"}}
	mail := &recordingSink{name: "mail", err: errors.New("smtp down")}

	report, err := newTestPipeline(src, hist, nil, mail, archive).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(archive.digests) != 1 {
		t.Fatalf("archive must still record the digest")
	}
	if report.HistoryWritten || hist.appends != 0 {
		t.Fatalf("a local archive must not mark the digest as delivered when every remote sink failed")
	}
}

func TestRunArchiveOnlyCountsAsDelivery(t *testing.T) {
	t.Parallel()

	src := &fakeSource{batches: []ports.SourceBatch{{Source: "rss", Items: []domain.NewsItem{item("u1")}}}}
	hist := &memoryHistory{}
	archive := &localSink{recordingSink{name: "archive"}}

	report, err := newTestPipeline(src, hist, nil, archive).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.HistoryWritten || len(hist.links) != 1 {
		t.Fatalf("with only local sinks configured their success is the delivery")
	}
}
