package fancontrol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fanwatch/logging"
)

// Recovery step names, as reported in StepError and the journal.
const (
	StepTerminate      = "terminate"
	StepSetFixedMode   = "set_fixed_mode"
	StepLaunchFixed    = "launch_fixed"
	StepTerminateFixed = "terminate_fixed"
	StepSetSmartMode   = "set_smart_mode"
	StepLaunchSmart    = "launch_smart"
)

// Reasons a recovery was started.
const (
	ReasonNotRunning    = "not_running"
	ReasonInvalidFanRPM = "invalid_fan_rpm"
	ReasonManual        = "manual"
)

// StepError reports which recovery step failed.
type StepError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("recovery step %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Trigger describes why a recovery attempt started.
type Trigger struct {
	Reason  string
	Adapter string // empty unless Reason is ReasonInvalidFanRPM
}

// Attempt is the outcome of one recovery sequence.
type Attempt struct {
	ID        string
	Trigger   Trigger
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// AttemptRecorder persists recovery attempts. Recording failures are logged
// and never affect recovery.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, a Attempt) error
}

// Config locates the fan-control utility.
type Config struct {
	// Executable is the full path of the utility.
	Executable string

	// MatchFragment identifies the utility's processes by command-line prefix.
	// Empty means Executable.
	MatchFragment string

	// ConfigPath is the utility's line-oriented settings file.
	ConfigPath string

	// FanModeKey is the key holding the fan mode. Empty means DefaultFanModeKey.
	FanModeKey string
}

func (c Config) fragment() string {
	if c.MatchFragment != "" {
		return c.MatchFragment
	}
	return c.Executable
}

func (c Config) key() string {
	if c.FanModeKey != "" {
		return c.FanModeKey
	}
	return DefaultFanModeKey
}

// Watchdog checks that the fan-control utility runs and restarts it.
//
// Whether the utility is running is always derived from the process table;
// nothing is cached between calls.
type Watchdog struct {
	cfg      Config
	procs    ProcessTable
	launcher Launcher
	waiter   StartupWaiter
	recorder AttemptRecorder
	logger   *logging.Logger
	now      func() time.Time
}

// Option customises a Watchdog.
type Option func(*Watchdog)

// WithLauncher replaces ExecLauncher.
func WithLauncher(l Launcher) Option {
	return func(w *Watchdog) { w.launcher = l }
}

// WithStartupWaiter replaces the default FixedDelay.
func WithStartupWaiter(s StartupWaiter) Option {
	return func(w *Watchdog) { w.waiter = s }
}

// WithRecorder records every attempt.
func WithRecorder(r AttemptRecorder) Option {
	return func(w *Watchdog) { w.recorder = r }
}

// NewWatchdog builds a Watchdog over procs.
func NewWatchdog(cfg Config, procs ProcessTable, logger *logging.Logger, opts ...Option) *Watchdog {
	w := &Watchdog{
		cfg:      cfg,
		procs:    procs,
		launcher: ExecLauncher{},
		waiter:   FixedDelay{Delay: DefaultStartupDelay},
		logger:   logger.Named("watchdog"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsRunning reports whether any process matches the utility.
func (w *Watchdog) IsRunning(ctx context.Context) (bool, error) {
	procs, err := w.procs.List(ctx)
	if err != nil {
		return false, err
	}
	fragment := w.cfg.fragment()
	for _, p := range procs {
		if MatchesExecutable(p.Cmdline, fragment) {
			return true, nil
		}
	}
	return false, nil
}

// EnsureRunning resets the utility if it is not running.
func (w *Watchdog) EnsureRunning(ctx context.Context) error {
	running, err := w.IsRunning(ctx)
	if err != nil {
		return fmt.Errorf("check fan utility: %w", err)
	}
	if running {
		return nil
	}
	w.logger.Warn("fan utility not running")
	return w.ResetFor(ctx, Trigger{Reason: ReasonNotRunning})
}

// Reset runs the recovery sequence without a specific trigger.
func (w *Watchdog) Reset(ctx context.Context) error {
	return w.ResetFor(ctx, Trigger{Reason: ReasonManual})
}

// ResetFor runs the five-step recovery sequence:
//
//  1. terminate every matching process
//  2. set the fan mode to fixed
//  3. launch the utility and wait for it to start
//  4. terminate it again
//  5. set the fan mode back to smart, relaunch and wait
//
// Cycling through fixed mode forces the utility to re-read its settings.
// Termination failures are logged and skipped. Config and launch failures
// abandon the attempt and are returned as a *StepError.
func (w *Watchdog) ResetFor(ctx context.Context, trigger Trigger) error {
	attempt := Attempt{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: w.now(),
	}
	logger := w.logger.With(
		logging.AttemptField(attempt.ID),
		zap.String("reason", trigger.Reason),
	)
	if trigger.Adapter != "" {
		logger = logger.With(logging.AdapterField(trigger.Adapter))
	}
	logger.Info("resetting fan utility")

	attempt.Err = w.runSequence(ctx, logger)
	attempt.Duration = w.now().Sub(attempt.StartedAt)

	if attempt.Err != nil {
		logger.Error("fan utility reset failed", zap.Error(attempt.Err))
	} else {
		logger.Info("fan utility reset", zap.Duration("duration", attempt.Duration))
	}

	if w.recorder != nil {
		if err := w.recorder.RecordAttempt(ctx, attempt); err != nil {
			logger.Warn("failed to record recovery attempt", zap.Error(err))
		}
	}
	return attempt.Err
}

func (w *Watchdog) runSequence(ctx context.Context, logger *logging.Logger) error {
	key := w.cfg.key()

	w.terminateAll(ctx, logger, StepTerminate)

	if err := SetFanMode(w.cfg.ConfigPath, key, FanModeFixed); err != nil {
		return &StepError{Step: StepSetFixedMode, Err: err}
	}
	if err := w.launcher.Launch(ctx, w.cfg.Executable); err != nil {
		return &StepError{Step: StepLaunchFixed, Err: err}
	}
	w.waiter.WaitForStartup(ctx)

	w.terminateAll(ctx, logger, StepTerminateFixed)

	if err := SetFanMode(w.cfg.ConfigPath, key, FanModeSmart); err != nil {
		return &StepError{Step: StepSetSmartMode, Err: err}
	}
	if err := w.launcher.Launch(ctx, w.cfg.Executable); err != nil {
		return &StepError{Step: StepLaunchSmart, Err: err}
	}
	w.waiter.WaitForStartup(ctx)
	return nil
}

// terminateAll kills every matching process, logging rather than returning failures.
func (w *Watchdog) terminateAll(ctx context.Context, logger *logging.Logger, step string) {
	procs, err := w.procs.List(ctx)
	if err != nil {
		logger.Warn("could not list processes", logging.StepField(step), zap.Error(err))
		return
	}
	fragment := w.cfg.fragment()
	for _, p := range procs {
		if !MatchesExecutable(p.Cmdline, fragment) {
			continue
		}
		if err := w.procs.Terminate(ctx, p.PID); err != nil {
			logger.Warn("could not terminate fan utility",
				logging.StepField(step), zap.Int32("pid", p.PID), zap.Error(err))
			continue
		}
		logger.Debug("terminated fan utility", logging.StepField(step), zap.Int32("pid", p.PID))
	}
}

// IsStepError reports whether err came from a recovery step.
func IsStepError(err error) bool {
	var se *StepError
	return errors.As(err, &se)
}
