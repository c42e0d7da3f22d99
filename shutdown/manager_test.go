package shutdown

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fanwatch/core"
	"fanwatch/logging"
)

func newTestManager(t *testing.T, opts ...ManagerOption) (*Manager, *observer.ObservedLogs) {
	t.Helper()
	obs, logs := observer.New(zapcore.DebugLevel)
	return NewManager(logging.NewFromCore(obs), opts...), logs
}

func TestManager_ShutdownOrder(t *testing.T) {
	m, _ := newTestManager(t)

	var order []string
	record := func(name string) core.ShutdownFunc {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	m.Register("logger", PriorityLogger, record("logger"))
	m.Register("journal", PriorityJournal, record("journal"))
	m.Register("gpu", PriorityTelemetry, record("gpu"))

	want := []string{"gpu", "journal", "logger"}
	if got := m.RegisteredHandlers(); !reflect.DeepEqual(got, want) {
		t.Errorf("RegisteredHandlers = %v, want %v", got, want)
	}
	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	if m.Context().Err() == nil {
		t.Error("context should be cancelled after Shutdown")
	}
}

func TestManager_ShutdownCombinesErrors(t *testing.T) {
	m, logs := newTestManager(t)
	errJournal := errors.New("database is locked")

	ran := 0
	m.Register("gpu", PriorityTelemetry, func(context.Context) error { ran++; return errors.New("destroy failed") })
	m.Register("journal", PriorityJournal, func(context.Context) error { ran++; return errJournal })
	m.Register("logger", PriorityLogger, func(context.Context) error { ran++; return nil })

	err := m.Shutdown()
	if !errors.Is(err, errJournal) {
		t.Fatalf("err = %v, want it to wrap the journal error", err)
	}
	if ran != 3 {
		t.Errorf("ran = %d, every handler must run", ran)
	}
	if logs.FilterMessage("Cleanup function failed").Len() != 2 {
		t.Errorf("expected two failure logs")
	}
	if err := m.Shutdown(); err != nil {
		t.Errorf("second Shutdown = %v, want nil", err)
	}
}

func TestManager_ShutdownWaitsForCycle(t *testing.T) {
	m, _ := newTestManager(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	go m.WrapOperation(context.Background(), "poll-cycle", func(context.Context) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	})
	<-started

	var cleanedAfterCycle atomic.Bool
	m.Register("gpu", PriorityTelemetry, func(context.Context) error {
		cleanedAfterCycle.Store(finished.Load())
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- m.Shutdown() }()

	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if !cleanedAfterCycle.Load() {
		t.Error("cleanup ran before the in-flight cycle finished")
	}
}

func TestManager_ShutdownTimeout(t *testing.T) {
	m, logs := newTestManager(t, WithTimeout(30*time.Millisecond))

	block := make(chan struct{})
	defer close(block)
	started := make(chan struct{})
	go m.WrapOperation(context.Background(), "stuck", func(context.Context) error {
		close(started)
		<-block
		return nil
	})
	<-started

	cleaned := false
	m.Register("gpu", PriorityTelemetry, func(context.Context) error { cleaned = true; return nil })

	if err := m.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if !cleaned {
		t.Error("cleanup must still run after the wait times out")
	}
	if logs.FilterMessage("Timeout waiting for in-flight operations").Len() != 1 {
		t.Error("expected timeout warning")
	}
}

func TestManager_WrapOperation(t *testing.T) {
	t.Run("runs", func(t *testing.T) {
		m, _ := newTestManager(t)
		called := false
		err := m.WrapOperation(context.Background(), "op", func(context.Context) error {
			called = true
			if m.ActiveOperations() != 1 {
				t.Errorf("ActiveOperations = %d inside op", m.ActiveOperations())
			}
			return nil
		})
		if err != nil || !called {
			t.Errorf("err=%v called=%v", err, called)
		}
	})

	t.Run("rejected after shutdown", func(t *testing.T) {
		m, _ := newTestManager(t)
		m.Shutdown()
		err := m.WrapOperation(context.Background(), "op", func(context.Context) error {
			t.Error("must not run")
			return nil
		})
		if !errors.Is(err, ErrTrackerClosed) {
			t.Errorf("err = %v", err)
		}
		if !m.IsShuttingDown() {
			t.Error("IsShuttingDown = false")
		}
	})

	t.Run("stop cancels", func(t *testing.T) {
		m, _ := newTestManager(t)
		m.Stop("service stop")
		err := m.WrapOperation(context.Background(), "op", func(context.Context) error {
			t.Error("must not run")
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("caller context cancelled", func(t *testing.T) {
		m, _ := newTestManager(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := m.WrapOperation(ctx, "op", func(context.Context) error { return nil }); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestManager_SignalSetsExitCode(t *testing.T) {
	tests := []struct {
		name string
		sig  syscall.Signal
		want int
	}{
		{"interrupt", syscall.SIGINT, core.ExitCodeSIGINT},
		{"terminate", syscall.SIGTERM, core.ExitCodeSIGTERM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			if m.ExitCode() != core.ExitCodeSuccess {
				t.Fatalf("initial ExitCode = %d", m.ExitCode())
			}
			m.handleSignal(tt.sig)
			if m.Context().Err() == nil {
				t.Error("context should be cancelled")
			}
			if m.ExitCode() != tt.want {
				t.Errorf("ExitCode = %d, want %d", m.ExitCode(), tt.want)
			}
		})
	}
}

func TestManager_SecondSignalForcesExit(t *testing.T) {
	var code atomic.Int32
	code.Store(-1)
	m, _ := newTestManager(t, WithForceExit(func(c int) { code.Store(int32(c)) }))

	m.handleSignal(syscall.SIGINT)
	if code.Load() != -1 {
		t.Fatal("first signal must not force exit")
	}
	m.handleSignal(syscall.SIGINT)
	if code.Load() != core.ExitCodeError {
		t.Errorf("forced exit code = %d", code.Load())
	}
	if m.ExitCode() != core.ExitCodeSIGINT {
		t.Errorf("ExitCode = %d, second signal must not overwrite it", m.ExitCode())
	}
}

func TestManager_StartTwice(t *testing.T) {
	m, _ := newTestManager(t)
	m.Start()
	m.Start()
	if err := m.Shutdown(); err != nil {
		t.Fatal(err)
	}
}
