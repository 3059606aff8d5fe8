// Package scheduler runs the periodic sync workers under a supervisor tree.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"match_bot/internal/metrics"
	"match_bot/internal/model"
)

// LogWriter persists diagnostic entries. storage.Storage implements it.
type LogWriter interface {
	AppendLog(ctx context.Context, e *model.LogEntry) error
}

// Job runs one cycle every interval, forever. A failed cycle is logged and
// recorded; it never stops the loop.
type Job struct {
	name     string
	interval time.Duration
	run      func(context.Context) error
	diag     LogWriter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewJob creates a Job. The first cycle starts after one interval.
func NewJob(name string, interval time.Duration, run func(context.Context) error, diag LogWriter, m *metrics.Metrics, log *slog.Logger) *Job {
	return &Job{
		name:     name,
		interval: interval,
		run:      run,
		diag:     diag,
		metrics:  m,
		log:      log,
	}
}

// Serve implements suture.Service. It returns only when ctx is cancelled.
func (j *Job) Serve(ctx context.Context) error {
	timer := time.NewTimer(j.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		j.RunOnce(ctx)
		timer.Reset(j.interval)
	}
}

// RunOnce executes a single cycle and records its outcome.
func (j *Job) RunOnce(ctx context.Context) {
	start := time.Now()
	err := j.run(ctx)
	j.metrics.ObserveCycle(j.name, err, time.Since(start))

	if err == nil {
		j.log.Debug("worker cycle finished", "worker", j.name, "duration", time.Since(start))
		return
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return
	}

	j.log.Error("worker cycle failed", "worker", j.name, "error", err)
	entry := model.LogEntry{Message: fmt.Sprintf("%s: %v", j.name, err), Severity: model.SeverityError}
	if err := j.diag.AppendLog(ctx, &entry); err != nil {
		j.log.Error("append diagnostic log", "worker", j.name, "error", err)
	}
}

func (j *Job) String() string {
	return j.name
}
