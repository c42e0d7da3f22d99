//go:build windows

package alert

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"
)

var procBeep = windows.NewLazySystemDLL("kernel32.dll").NewProc("Beep")

// beep calls kernel32 Beep, which blocks for the tone's duration.
func beep(_ context.Context, t Tone) error {
	if err := procBeep.Find(); err != nil {
		return fmt.Errorf("resolve Beep: %w", err)
	}
	r, _, err := procBeep.Call(uintptr(t.FrequencyHz), uintptr(t.Duration.Milliseconds()))
	if r == 0 {
		return fmt.Errorf("beep: %w", err)
	}
	return nil
}
