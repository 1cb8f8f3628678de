// Package scheduler drives the notification checks on a fixed cadence.
//
// Each tick runs the live-match detector and then the status updater, both to
// completion. The next tick is armed only after the previous one returns, so
// ticks never overlap: a slow tick delays the schedule instead of stacking runs.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/albapepper/kickoff-notifier/internal/notifications"
)

const defaultInterval = 60 * time.Second

// Checks is the pair of operations run on every tick.
type Checks interface {
	DetectLive(ctx context.Context) notifications.DetectResult
	EndStale(ctx context.Context) notifications.StatusResult
}

// TickSnapshot describes one completed tick.
type TickSnapshot struct {
	Seq       uint64
	StartedAt time.Time
	Duration  time.Duration
	Detect    notifications.DetectResult
	Status    notifications.StatusResult
}

// Loop runs Checks sequentially on a single-shot timer.
type Loop struct {
	checks   Checks
	interval time.Duration
	logger   *slog.Logger

	seq  atomic.Uint64
	last atomic.Pointer[TickSnapshot]
}

// New creates a Loop. A non-positive interval falls back to one minute.
func New(checks Checks, interval time.Duration, logger *slog.Logger) *Loop {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Loop{checks: checks, interval: interval, logger: logger}
}

// Run ticks once immediately, then again each time the interval elapses after
// the previous tick finished. Blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("Scheduler started", "interval", l.interval)

	l.Tick(ctx)

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			l.Tick(ctx)
			timer.Reset(l.interval)
		}
	}
}

// Tick runs the detector and then the updater once.
func (l *Loop) Tick(ctx context.Context) TickSnapshot {
	start := time.Now()
	seq := l.seq.Add(1)
	l.logger.Info("Checking matches", "tick", seq, "at", start.Format(time.TimeOnly))

	detect := l.checks.DetectLive(ctx)
	status := l.checks.EndStale(ctx)

	snap := TickSnapshot{
		Seq:       seq,
		StartedAt: start,
		Duration:  time.Since(start),
		Detect:    detect,
		Status:    status,
	}
	l.last.Store(&snap)
	observeTick(snap)

	l.logger.Debug("Tick complete",
		"tick", seq,
		"detect", detect.Summary(),
		"ended", status.Ended,
		"duration", snap.Duration.Round(time.Millisecond))
	return snap
}

// Last returns the most recent completed tick, if any.
func (l *Loop) Last() (TickSnapshot, bool) {
	p := l.last.Load()
	if p == nil {
		return TickSnapshot{}, false
	}
	return *p, true
}

// Interval returns the rearm delay between ticks.
func (l *Loop) Interval() time.Duration {
	return l.interval
}
