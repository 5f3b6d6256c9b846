// Package isolate turns calls to external collaborators into typed results so
// a failing source, enrichment, ranker or sink can never abort a run.
package isolate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is reported when the call exceeded its deadline.
	ErrTimeout = errors.New("call timed out")
	// ErrPanic is reported when the call panicked.
	ErrPanic = errors.New("call panicked")
)

// Status classifies the outcome of an isolated call.
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Result carries the value and the classified outcome of a call. Value may be
// populated together with Err when the callee returned partial data.
type Result[T any] struct {
	Value    T
	Err      error
	Status   Status
	Duration time.Duration
}

// Failed reports whether the call ended in an error.
func (r Result[T]) Failed() bool {
	return r.Status == StatusFailed
}

// Do runs fn with a derived context bounded by timeout (no bound when
// timeout <= 0). Panics are recovered into ErrPanic, deadline overruns into
// ErrTimeout. isEmpty decides between StatusOK and StatusEmpty for successful
// calls; nil means every success is StatusOK.
func Do[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error), isEmpty func(T) bool) Result[T] {
	start := time.Now()

	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		var out outcome
		defer func() {
			if r := recover(); r != nil {
				out.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
			done <- out
		}()
		out.value, out.err = fn(callCtx)
	}()

	var res Result[T]
	select {
	case out := <-done:
		res.Value, res.Err = out.value, out.err
		if res.Err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			res.Err = fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, res.Err)
		}
	case <-callCtx.Done():
		if ctx.Err() != nil {
			res.Err = ctx.Err()
		} else {
			res.Err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
	}
	res.Duration = time.Since(start)

	switch {
	case res.Err != nil:
		res.Status = StatusFailed
	case isEmpty != nil && isEmpty(res.Value):
		res.Status = StatusEmpty
	default:
		res.Status = StatusOK
	}
	return res
}

// Run is Do for calls that only return an error.
func Run(ctx context.Context, timeout time.Duration, fn func(context.Context) error) Result[struct{}] {
	return Do(ctx, timeout, func(c context.Context) (struct{}, error) {
		return struct{}{}, fn(c)
	}, nil)
}
