package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/isolate"
	"NewsDigest/internal/ports"
)

// SinkOutcome records one delivery attempt.
type SinkOutcome struct {
	Sink     string
	Local    bool
	Err      error
	Duration time.Duration
}

// OK reports whether the sink accepted the digest.
func (o SinkOutcome) OK() bool {
	return o.Err == nil
}

// DispatchReport lists the outcome of every sink in call order.
type DispatchReport struct {
	Outcomes []SinkOutcome
}

// Succeeded counts the sinks that accepted the digest.
func (r DispatchReport) Succeeded() int {
	return lo.CountBy(r.Outcomes, SinkOutcome.OK)
}

// Delivered reports whether at least one remote sink accepted the digest.
// Local sinks count only when no remote sink was configured.
func (r DispatchReport) Delivered() bool {
	remote := lo.Filter(r.Outcomes, func(o SinkOutcome, _ int) bool { return !o.Local })
	if len(remote) == 0 {
		return r.Succeeded() > 0
	}
	return lo.SomeBy(remote, SinkOutcome.OK)
}

// Failed returns the names of the sinks that failed.
func (r DispatchReport) Failed() []string {
	return lo.FilterMap(r.Outcomes, func(o SinkOutcome, _ int) (string, bool) {
		return o.Sink, !o.OK()
	})
}

// Dispatch hands the digest to every sink in turn. Each call is bounded by
// timeout and isolated: an error, timeout or panic in one sink is recorded
// and the remaining sinks still run.
func Dispatch(ctx context.Context, sinks []ports.Sink, digest domain.Digest, timeout time.Duration, logger *slog.Logger) DispatchReport {
	if logger == nil {
		logger = slog.Default()
	}

	report := DispatchReport{Outcomes: make([]SinkOutcome, 0, len(sinks))}
	for _, sink := range sinks {
		res := isolate.Run(ctx, timeout, func(c context.Context) error {
			return sink.Deliver(c, digest)
		})
		outcome := SinkOutcome{Sink: sink.Name(), Local: isLocal(sink), Err: res.Err, Duration: res.Duration}
		report.Outcomes = append(report.Outcomes, outcome)

		if res.Failed() {
			logger.Error("delivery failed", "sink", outcome.Sink, "error", res.Err, "duration", res.Duration)
			continue
		}
		logger.Info("digest delivered", "sink", outcome.Sink, "items", len(digest.Items), "duration", res.Duration)
	}
	return report
}

func isLocal(sink ports.Sink) bool {
	local, ok := sink.(ports.LocalSink)
	return ok && local.Local()
}
