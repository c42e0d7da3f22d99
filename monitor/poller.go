// Package monitor runs the poll cycle: keep the fan utility alive, read every
// adapter, reset on an unreadable fan and alert if it stays unreadable.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fanwatch/adl"
	"fanwatch/alert"
	"fanwatch/fancontrol"
	"fanwatch/gpu"
	"fanwatch/logging"
)

// Telemetry reads every monitored adapter once.
type Telemetry interface {
	Read() []gpu.AdapterReading
}

// Recovery keeps the fan utility running and resets it on demand.
type Recovery interface {
	EnsureRunning(ctx context.Context) error
	ResetFor(ctx context.Context, trigger fancontrol.Trigger) error
}

// AlertEvent is one alert raised for an adapter.
type AlertEvent struct {
	CycleID string
	Adapter string
	Reading gpu.FanReading
	At      time.Time
	Err     error
}

// AlertRecorder persists alerts.
type AlertRecorder interface {
	RecordAlert(ctx context.Context, e AlertEvent) error
}

// CycleResult summarises one PollOnce call.
type CycleResult struct {
	ID      string
	Read    int
	Skipped int
	Resets  int
	Alerts  []string
}

// Poller executes poll cycles. It is not safe for concurrent use because the
// telemetry it reads from is bound to a single thread.
type Poller struct {
	telemetry Telemetry
	recovery  Recovery
	alerter   alert.Alerter
	recorder  AlertRecorder
	logger    *logging.Logger
	now       func() time.Time
}

// Option customises a Poller.
type Option func(*Poller)

// WithAlertRecorder records every alert.
func WithAlertRecorder(r AlertRecorder) Option {
	return func(p *Poller) { p.recorder = r }
}

// New builds a Poller.
func New(telemetry Telemetry, recovery Recovery, alerter alert.Alerter, logger *logging.Logger, opts ...Option) *Poller {
	p := &Poller{
		telemetry: telemetry,
		recovery:  recovery,
		alerter:   alerter,
		logger:    logger.Named("poller"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollOnce runs one cycle:
//
//  1. make sure the fan utility runs
//  2. read and log every adapter; each adapter reporting the invalid RPM
//     triggers its own reset
//  3. read every adapter again and alert once per adapter still invalid
//
// Per-adapter failures are logged and the adapter is skipped for the rest of
// the cycle. The only error returned is a fatal telemetry failure, after
// which polling must stop.
func (p *Poller) PollOnce(ctx context.Context) (CycleResult, error) {
	res := CycleResult{ID: uuid.NewString()}
	logger := p.logger.With(logging.CycleField(res.ID))

	if err := p.recovery.EnsureRunning(ctx); err != nil {
		logger.Warn("fan utility check failed", zap.Error(err))
	}

	skipped := make(map[int]bool)
	for _, r := range p.telemetry.Read() {
		if err := p.checkReading(r, logger); err != nil {
			if adl.IsFatal(r.Err) {
				return res, err
			}
			skipped[r.Adapter.Index] = true
			res.Skipped++
			continue
		}
		res.Read++

		logger.Info("fan reading", logging.FanFields(r.Adapter.Name,
			r.Reading.FanSpeedRPM, r.Reading.FanSpeedPct, r.Reading.TempC)...)

		if r.Reading.Invalid() {
			logger.Warn("fan speed sensor unreadable", logging.AdapterField(r.Adapter.Name))
			res.Resets++
			trigger := fancontrol.Trigger{Reason: fancontrol.ReasonInvalidFanRPM, Adapter: r.Adapter.Name}
			if err := p.recovery.ResetFor(ctx, trigger); err != nil {
				logger.Error("fan utility reset failed", logging.AdapterField(r.Adapter.Name), zap.Error(err))
			}
		}
	}

	for _, r := range p.telemetry.Read() {
		if skipped[r.Adapter.Index] {
			continue
		}
		if err := p.checkReading(r, logger); err != nil {
			if adl.IsFatal(r.Err) {
				return res, err
			}
			continue
		}
		if !r.Reading.Invalid() {
			continue
		}

		res.Alerts = append(res.Alerts, r.Adapter.Name)
		event := AlertEvent{CycleID: res.ID, Adapter: r.Adapter.Name, Reading: r.Reading, At: p.now()}
		logger.Error("fan speed still unreadable after reset", logging.AdapterField(r.Adapter.Name))
		if err := p.alerter.Alert(ctx); err != nil {
			event.Err = err
			logger.Warn("audible alert failed", zap.Error(err))
		}
		if p.recorder != nil {
			if err := p.recorder.RecordAlert(ctx, event); err != nil {
				logger.Warn("failed to record alert", zap.Error(err))
			}
		}
	}

	return res, nil
}

// checkReading logs a failed reading and returns its error, wrapped as fatal
// when the binding can no longer be trusted.
func (p *Poller) checkReading(r gpu.AdapterReading, logger *logging.Logger) error {
	if r.Err == nil {
		return nil
	}
	if adl.IsFatal(r.Err) {
		logger.Error("telemetry failure", logging.AdapterField(r.Adapter.Name), zap.Error(r.Err))
		return fmt.Errorf("poll adapter %s: %w", r.Adapter.Name, r.Err)
	}
	logger.Warn("unable to read sensors", logging.AdapterField(r.Adapter.Name), zap.Error(r.Err))
	return r.Err
}
