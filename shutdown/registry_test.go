package shutdown

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/multierr"
)

func TestShutdownRegistry_EqualPriorityKeepsRegistrationOrder(t *testing.T) {
	r := NewShutdownRegistry()
	var order []string
	for _, name := range []string{"c", "a", "b"} {
		name := name
		r.Register(name, 10, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := []string{"c", "a", "b"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestShutdownRegistry_ErrorsNamed(t *testing.T) {
	r := NewShutdownRegistry()
	r.Register("journal", PriorityJournal, func(context.Context) error { return errors.New("locked") })
	r.Register("gpu", PriorityTelemetry, func(context.Context) error { return errors.New("busy") })

	err := r.Shutdown(context.Background())
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("errors = %v", errs)
	}
	if errs[0].Error() != "gpu: busy" || errs[1].Error() != "journal: locked" {
		t.Errorf("errors = %q, %q", errs[0], errs[1])
	}
}

func TestShutdownRegistry_Once(t *testing.T) {
	r := NewShutdownRegistry()
	calls := 0
	r.Register("x", 1, func(context.Context) error { calls++; return nil })

	r.Shutdown(context.Background())
	r.Shutdown(context.Background())
	r.Register("late", 0, func(context.Context) error { calls++; return nil })

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, late registration must be ignored", r.Count())
	}
}

func TestShutdownRegistry_PassesContext(t *testing.T) {
	r := NewShutdownRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got error
	r.Register("x", 1, func(ctx context.Context) error { got = ctx.Err(); return nil })
	r.Shutdown(ctx)

	if !errors.Is(got, context.Canceled) {
		t.Errorf("handler saw ctx.Err() = %v", got)
	}
}
