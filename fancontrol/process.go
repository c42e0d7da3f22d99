// Package fancontrol keeps the fan-control utility alive and restarts it in
// a known-good mode when the GPU fan sensor stops reporting.
package fancontrol

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo is one entry of the process table.
type ProcessInfo struct {
	PID     int32
	Cmdline string
}

// ProcessTable lists and terminates processes.
type ProcessTable interface {
	List(ctx context.Context) ([]ProcessInfo, error)
	Terminate(ctx context.Context, pid int32) error
}

// MatchesExecutable reports whether cmdline launches the executable named by
// fragment. A leading quote, as Windows adds around paths with spaces, is
// ignored. The comparison is case-sensitive.
func MatchesExecutable(cmdline, fragment string) bool {
	if fragment == "" {
		return false
	}
	return strings.HasPrefix(strings.TrimPrefix(cmdline, `"`), fragment)
}

// SystemProcessTable reads the live process table through gopsutil.
type SystemProcessTable struct{}

// List returns every process whose command line could be read. Processes
// that exit or deny access while being listed are skipped.
func (SystemProcessTable) List(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		cmd, err := p.CmdlineWithContext(ctx)
		if err != nil || cmd == "" {
			continue
		}
		out = append(out, ProcessInfo{PID: p.Pid, Cmdline: cmd})
	}
	return out, nil
}

// Terminate kills pid.
func (SystemProcessTable) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := p.KillWithContext(ctx); err != nil {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	return nil
}
