package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"fanwatch/core"
	"fanwatch/logging"
)

// DefaultTimeout bounds the whole shutdown. A poll cycle that is resetting
// the fan utility waits out two startup delays, so this leaves room for one.
const DefaultTimeout = 45 * time.Second

// Manager ties together the operation tracker, the cleanup registry and
// signal handling.
//
//	m := shutdown.NewManager(logger)
//	m.Register("journal", shutdown.PriorityJournal, journal.Close)
//	m.Start()
//	err := poller.Run(m.Context(), interval, m.WrapOperation)
//	m.Shutdown()
type Manager struct {
	logger    *logging.Logger
	timeout   time.Duration
	forceExit func(code int)

	mu       sync.Mutex
	started  bool
	shutdown bool
	exitCode int

	ctx    context.Context
	cancel context.CancelFunc

	tracker  *OperationTracker
	registry *ShutdownRegistry
	signals  *SignalCounter

	sigChan chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the shutdown timeout duration.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithForceExit replaces os.Exit for the second-signal path.
func WithForceExit(exit func(code int)) ManagerOption {
	return func(m *Manager) {
		m.forceExit = exit
	}
}

// NewManager creates a Manager. Signals are not handled until Start.
func NewManager(logger *logging.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:    logger.Named("shutdown"),
		timeout:   DefaultTimeout,
		forceExit: os.Exit,
		exitCode:  core.ExitCodeSuccess,
		ctx:       ctx,
		cancel:    cancel,
		tracker:   NewOperationTracker(),
		registry:  NewShutdownRegistry(),
		sigChan:   make(chan os.Signal, 1),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.signals = NewSignalCounter(2, func() {
		m.logger.Warn("Received second signal, forcing immediate shutdown")
		m.logger.Sync()
		m.forceExit(core.ExitCodeError)
	})

	return m
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priorities run first.
func (m *Manager) Register(name string, priority int, fn core.ShutdownFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("Registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start listens for SIGINT and SIGTERM. Calling it again does nothing.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range m.sigChan {
			m.handleSignal(sig)
		}
	}()

	m.logger.Debug("Listening for shutdown signals")
}

func (m *Manager) handleSignal(sig os.Signal) {
	if m.signals.Increment() != 1 {
		return
	}

	code := core.ExitCodeSIGINT
	if sig == syscall.SIGTERM {
		code = core.ExitCodeSIGTERM
	}
	m.mu.Lock()
	m.exitCode = code
	m.mu.Unlock()

	m.logger.Info("Received shutdown signal, finishing current cycle",
		zap.String("signal", sig.String()),
	)
	m.cancel()
}

// Stop begins shutdown without a signal, for example when the service
// manager asks the program to stop.
func (m *Manager) Stop(reason string) {
	if m.ctx.Err() == nil {
		m.logger.Info("Shutdown requested", zap.String("reason", reason))
	}
	m.cancel()
}

// ExitCode is the process exit code implied by how shutdown began.
func (m *Manager) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitCode
}

// Shutdown waits for in-flight operations, then runs the cleanup functions
// with whatever time is left. It returns the combined cleanup errors.
// Later calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	m.mu.Unlock()

	m.cancel()
	startTime := time.Now()
	m.logger.Info("Initiating graceful shutdown",
		zap.Duration("timeout", m.timeout),
		zap.Int("registered_handlers", m.registry.Count()),
	)

	m.tracker.Close()
	if active := m.tracker.ActiveCount(); active > 0 {
		m.logger.Info("Waiting for in-flight operations", zap.Int64("active_count", active))
	}
	if err := m.tracker.Wait(m.timeout); err != nil {
		m.logger.Warn("Timeout waiting for in-flight operations",
			zap.Duration("waited", time.Since(startTime)),
			zap.Int64("remaining_ops", m.tracker.ActiveCount()),
		)
	}

	remaining := m.timeout - time.Since(startTime)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	m.logger.Debug("Executing cleanup functions", zap.Strings("handlers", m.registry.Names()))
	err := m.registry.Shutdown(ctx)

	m.mu.Lock()
	if m.started {
		signal.Stop(m.sigChan)
		close(m.sigChan)
	}
	m.mu.Unlock()

	if err != nil {
		// The logger may already be flushed and closed; the error is returned too.
		for _, e := range multierr.Errors(err) {
			m.logger.Error("Cleanup function failed", zap.Error(e))
		}
		return err
	}
	return nil
}

// WrapOperation runs fn as a tracked operation. Once shutdown has begun it
// returns ErrTrackerClosed or context.Canceled without calling fn. The
// signature matches monitor.CycleWrapper.
func (m *Manager) WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	if !m.tracker.Start() {
		m.logger.Debug("Operation rejected, shutting down", zap.String("operation", name))
		return ErrTrackerClosed
	}
	defer m.tracker.Done()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return context.Canceled
	default:
	}

	return fn(ctx)
}

// ActiveOperations returns the count of currently in-flight operations.
func (m *Manager) ActiveOperations() int64 {
	return m.tracker.ActiveCount()
}

// IsShuttingDown returns true if shutdown has been initiated.
func (m *Manager) IsShuttingDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown || m.tracker.IsClosed()
}

// RegisteredHandlers returns handler names in execution order.
func (m *Manager) RegisteredHandlers() []string {
	return m.registry.Names()
}
