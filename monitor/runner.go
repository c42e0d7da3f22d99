package monitor

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"fanwatch/adl"
)

// DefaultInterval is the time between poll cycles.
const DefaultInterval = 2 * time.Second

// CycleWrapper runs one cycle, for example to track it as an in-flight
// operation during shutdown.
type CycleWrapper func(ctx context.Context, name string, fn func(context.Context) error) error

func direct(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

// Run polls once immediately and then on every tick until ctx is cancelled
// or a cycle fails fatally.
//
// All cycles run on the calling goroutine, which is locked to its OS thread
// for the duration. Cancellation is observed only between cycles; a cycle in
// progress always completes. A nil wrap runs cycles directly.
func (p *Poller) Run(ctx context.Context, interval time.Duration, wrap CycleWrapper) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if interval <= 0 {
		interval = DefaultInterval
	}
	if wrap == nil {
		wrap = direct
	}

	cycle := func() error {
		return wrap(ctx, "poll-cycle", func(context.Context) error {
			_, err := p.PollOnce(context.WithoutCancel(ctx))
			return err
		})
	}

	if err := p.runCycle(ctx, cycle); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("polling stopped")
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				p.logger.Info("polling stopped")
				return nil
			}
			if err := p.runCycle(ctx, cycle); err != nil {
				return err
			}
		}
	}
}

// runCycle treats a wrapper refusal caused by shutdown as a clean stop.
// Fatal telemetry errors are always returned.
func (p *Poller) runCycle(ctx context.Context, cycle func() error) error {
	err := cycle()
	if err != nil && ctx.Err() != nil && !adl.IsFatal(err) {
		p.logger.Debug("cycle skipped during shutdown", zap.Error(err))
		return nil
	}
	return err
}
