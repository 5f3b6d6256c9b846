package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	batches := [][]domain.NewsItem{
		{item("u1"), item(""), item("u2")},
		{item("u2"), item("u3"), item("u4")},
	}
	got := Aggregate(batches, domain.NewLinkSet("u3"))

	want := []string{"u1", "u2", "u4"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %+v", want, got)
	}
	for i, link := range want {
		if got[i].Link != link {
			t.Fatalf("position %d: expected %s, got %s", i, link, got[i].Link)
		}
	}
}

func TestAggregateNilHistory(t *testing.T) {
	t.Parallel()

	if got := Aggregate([][]domain.NewsItem{{item("u1")}}, nil); len(got) != 1 {
		t.Fatalf("nil history must exclude nothing, got %+v", got)
	}
}

type slowSink struct{}

func (slowSink) Name() string { return "slow" }

func (slowSink) Deliver(ctx context.Context, _ domain.Digest) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatchBoundsEachSink(t *testing.T) {
	t.Parallel()

	ok := &recordingSink{name: "mail"}
	report := Dispatch(context.Background(),
		[]ports.Sink{slowSink{}, ok},
		domain.Digest{Subject: "s"}, 20*time.Millisecond, quietLogger())

	if len(report.Outcomes) != 2 {
		t.Fatalf("expected two outcomes, got %d", len(report.Outcomes))
	}
	if report.Outcomes[0].OK() || report.Outcomes[0].Sink != "slow" {
		t.Fatalf("slow sink must time out: %+v", report.Outcomes[0])
	}
	if !report.Outcomes[1].OK() || len(ok.digests) != 1 {
		t.Fatalf("second sink must still run")
	}
	if !report.Delivered() {
		t.Fatalf("expected delivered report")
	}
}

func TestDispatchReportEmpty(t *testing.T) {
	t.Parallel()

	var r DispatchReport
	if r.Delivered() || r.Succeeded() != 0 || len(r.Failed()) != 0 {
		t.Fatalf("empty report must report nothing delivered")
	}

	r.Outcomes = []SinkOutcome{{Sink: "mail", Err: errors.New("x")}}
	if r.Delivered() || r.Failed()[0] != "mail" {
		t.Fatalf("unexpected report: %+v", r)
	}
}
