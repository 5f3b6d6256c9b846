package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNewCronSchedulerRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewCronScheduler("not a cron", nil, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNextHonorsLocation(t *testing.T) {
	t.Parallel()

	seoul := time.FixedZone("KST", 9*60*60)
	s, err := NewCronScheduler("0 8 * * *", seoul, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	// 2024-05-01 00:00 UTC is 09:00 KST, so the next 08:00 KST is on May 2.
	next := s.Next(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	want := time.Date(2024, 5, 2, 8, 0, 0, 0, seoul)
	if !next.Equal(want) {
		t.Fatalf("expected %s, got %s", want, next)
	}
}

func TestStartFiresJobAndStops(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1s", time.UTC, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	fired := make(chan time.Time, 4)
	if err := s.Start(context.Background(), func(t time.Time) { fired <- t }); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case ts := <-fired:
		if ts.Location() != time.UTC {
			t.Fatalf("trigger must be in scheduler location, got %s", ts.Location())
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not fire")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}
}

func TestStopWaitsForRunningJobAfterContextCancel(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1s", time.UTC, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, func(time.Time) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-entered:
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not fire")
	}

	// the context watcher stops the cron first
	cancel()
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan error, 1)
	go func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer stopCancel()
		stopped <- s.Stop(stopCtx)
	}()

	select {
	case err := <-stopped:
		t.Fatalf("stop returned while the job was still running: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("stop did not return after the job finished")
	}
}
