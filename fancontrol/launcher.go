package fancontrol

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// Launcher starts the fan-control executable without waiting for it to exit.
type Launcher interface {
	Launch(ctx context.Context, path string) error
}

// ExecLauncher starts the executable in its own directory and detaches from it.
type ExecLauncher struct{}

// Launch implements Launcher.
func (ExecLauncher) Launch(_ context.Context, path string) error {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}
	return cmd.Process.Release()
}

// StartupWaiter blocks until a freshly launched utility is ready for the
// next recovery step.
type StartupWaiter interface {
	WaitForStartup(ctx context.Context)
}

// DefaultStartupDelay is how long the utility gets to start before the
// recovery sequence continues.
const DefaultStartupDelay = 10 * time.Second

// FixedDelay waits a fixed duration. The OS gives no readiness signal for the
// utility, so the wait is a plain sleep and ignores cancellation.
type FixedDelay struct {
	Delay time.Duration
}

// WaitForStartup implements StartupWaiter.
func (d FixedDelay) WaitForStartup(context.Context) {
	time.Sleep(d.Delay)
}
