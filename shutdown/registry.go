package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"fanwatch/core"
)

// Priorities used by fanwatch. Lower runs first.
const (
	// PriorityTelemetry releases the driver context and control.
	PriorityTelemetry = 10
	// PriorityJournal closes the recovery journal.
	PriorityJournal = 30
	// PriorityLogger flushes the log after everything else has logged.
	PriorityLogger = 90
)

type shutdownEntry struct {
	name     string
	fn       core.ShutdownFunc
	priority int
}

// ShutdownRegistry runs cleanup functions once, ordered by priority. Entries
// with equal priority keep their registration order.
type ShutdownRegistry struct {
	mu      sync.Mutex
	entries []shutdownEntry
	closed  bool
}

// NewShutdownRegistry creates an empty registry.
func NewShutdownRegistry() *ShutdownRegistry {
	return &ShutdownRegistry{}
}

// Register adds fn. Registration after Shutdown is ignored.
func (r *ShutdownRegistry) Register(name string, priority int, fn core.ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.entries = append(r.entries, shutdownEntry{name: name, fn: fn, priority: priority})
}

// Shutdown calls every function even if some fail, and returns their errors
// combined, each prefixed with the entry name. Later calls return nil.
func (r *ShutdownRegistry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.sortedLocked()
	r.mu.Unlock()

	var errs error
	for _, entry := range entries {
		if err := entry.fn(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", entry.name, err))
		}
	}
	return errs
}

// Names returns entry names in execution order.
func (r *ShutdownRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.sortedLocked()
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.name
	}
	return names
}

func (r *ShutdownRegistry) sortedLocked() []shutdownEntry {
	sorted := make([]shutdownEntry, len(r.entries))
	copy(sorted, r.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})
	return sorted
}

// Count returns the number of registered shutdown functions.
func (r *ShutdownRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
