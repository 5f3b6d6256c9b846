// Package scheduler drives recurring runs from a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsDigest/internal/ports"
)

// CronScheduler fires the job on a standard five-field cron expression
// evaluated in a fixed location. Overlapping runs are skipped.
type CronScheduler struct {
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	logger   cron.Logger

	mu   sync.Mutex
	cron *cron.Cron
	// stopped is the context returned by the first cron.Stop call; it is
	// done once the running job has returned.
	stopped context.Context
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler validates spec and binds it to loc (UTC when nil).
func NewCronScheduler(spec string, loc *time.Location, logger *log.Logger) (*CronScheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	var l cron.Logger = cron.DiscardLogger
	if logger != nil {
		l = cron.PrintfLogger(logger)
	}
	return &CronScheduler{spec: spec, schedule: schedule, loc: loc, logger: l}, nil
}

// Next returns the first activation strictly after t.
func (c *CronScheduler) Next(t time.Time) time.Time {
	return c.schedule.Next(t.In(c.loc))
}

// Start registers job and begins firing. The scheduler stops when ctx is done.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil && c.stopped == nil {
		return nil
	}

	cr := cron.New(
		cron.WithLocation(c.loc),
		cron.WithLogger(c.logger),
		cron.WithChain(cron.Recover(c.logger), cron.SkipIfStillRunning(c.logger)),
	)
	cr.Schedule(c.schedule, cron.FuncJob(func() {
		job(time.Now().In(c.loc))
	}))
	cr.Start()
	c.cron = cr
	c.stopped = nil

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		current := c.cron == cr
		c.mu.Unlock()
		if current {
			c.halt()
		}
	}()
	return nil
}

// Stop halts scheduling and waits for a running job, bounded by ctx. Every
// caller waits on the same job, whoever stopped the scheduler first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.halt()
	if done == nil {
		return nil
	}
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronScheduler) halt() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return nil
	}
	if c.stopped == nil {
		c.stopped = c.cron.Stop()
	}
	return c.stopped
}
