//go:build !windows

package alert

import (
	"context"
	"fmt"
	"os"
	"time"
)

// beep writes the terminal bell and holds for the tone's duration so callers
// see the same blocking behaviour on every platform.
func beep(ctx context.Context, t Tone) error {
	if _, err := os.Stderr.WriteString("\a"); err != nil {
		return fmt.Errorf("write bell: %w", err)
	}
	timer := time.NewTimer(t.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return nil
}
