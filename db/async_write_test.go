package db

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAsyncWriter_DrainsOnStop(t *testing.T) {
	w := NewAsyncWriter(8, nil)
	w.Start()

	var done atomic.Int32
	for i := 0; i < 5; i++ {
		if !w.Enqueue(func(context.Context) error {
			time.Sleep(time.Millisecond)
			done.Add(1)
			return nil
		}) {
			t.Fatal("Enqueue refused with room in the queue")
		}
	}

	if !w.StopWithTimeout(time.Second) {
		t.Fatal("Stop timed out")
	}
	if done.Load() != 5 {
		t.Errorf("done = %d, want 5", done.Load())
	}
	if w.Enqueue(func(context.Context) error { return nil }) {
		t.Error("Enqueue after Stop must be refused")
	}
}

func TestAsyncWriter_RefusesBeforeStartAndWhenFull(t *testing.T) {
	w := NewAsyncWriter(1, nil)
	if w.Enqueue(func(context.Context) error { return nil }) {
		t.Error("Enqueue before Start must be refused")
	}

	block := make(chan struct{})
	started := make(chan struct{})
	w.Start()
	w.Enqueue(func(context.Context) error { close(started); <-block; return nil })
	<-started

	if !w.Enqueue(func(context.Context) error { return nil }) {
		t.Fatal("one slot should be free")
	}
	if w.Enqueue(func(context.Context) error { return nil }) {
		t.Error("full queue must refuse")
	}
	if w.Pending() != 1 {
		t.Errorf("Pending = %d", w.Pending())
	}

	close(block)
	w.StopWithTimeout(time.Second)
}

func TestAsyncWriter_ReportsErrors(t *testing.T) {
	var mu sync.Mutex
	var got []error
	w := NewAsyncWriter(4, func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	})
	w.Start()

	boom := errors.New("disk I/O error")
	w.Enqueue(func(context.Context) error { return boom })
	w.Enqueue(func(context.Context) error { return nil })
	w.StopWithTimeout(time.Second)

	if len(got) != 1 || !errors.Is(got[0], boom) {
		t.Errorf("errors = %v", got)
	}
}

func TestAsyncWriter_StopTimeout(t *testing.T) {
	w := NewAsyncWriter(1, nil)
	w.Start()
	block := make(chan struct{})
	defer close(block)
	w.Enqueue(func(context.Context) error { <-block; return nil })

	if w.StopWithTimeout(10 * time.Millisecond) {
		t.Error("Stop should time out while a write is blocked")
	}
	if !w.StopWithTimeout(time.Millisecond) {
		t.Error("second Stop should return true")
	}
}
