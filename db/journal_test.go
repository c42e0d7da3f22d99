package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fanwatch/fancontrol"
	"fanwatch/gpu"
	"fanwatch/logging"
	"fanwatch/monitor"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(context.Background(), filepath.Join(t.TempDir(), "data", "journal.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	t.Cleanup(func() { j.Close(context.Background()) })
	return j
}

func TestJournal_AttemptRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	attempts := []fancontrol.Attempt{
		{
			ID:        "a-1",
			Trigger:   fancontrol.Trigger{Reason: fancontrol.ReasonNotRunning},
			StartedAt: base,
			Duration:  20 * time.Second,
		},
		{
			ID:        "a-2",
			Trigger:   fancontrol.Trigger{Reason: fancontrol.ReasonInvalidFanRPM, Adapter: "RX 6800"},
			StartedAt: base.Add(time.Minute),
			Duration:  1500 * time.Millisecond,
			Err:       &fancontrol.StepError{Step: fancontrol.StepLaunchFixed, Err: errors.New("file not found")},
		},
	}
	for _, a := range attempts {
		if err := j.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("RecordAttempt(%s): %v", a.ID, err)
		}
	}
	if err := j.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := j.RecentAttempts(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attempts, want 2", len(got))
	}

	latest := got[0]
	if latest.AttemptID != "a-2" || latest.Adapter != "RX 6800" || latest.Reason != fancontrol.ReasonInvalidFanRPM {
		t.Errorf("latest = %+v", latest)
	}
	if latest.Outcome != OutcomeFailed || latest.FailedStep != fancontrol.StepLaunchFixed {
		t.Errorf("outcome = %q step = %q", latest.Outcome, latest.FailedStep)
	}
	if latest.Duration != 1500*time.Millisecond || !latest.StartedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("timing = %v at %v", latest.Duration, latest.StartedAt)
	}
	if got[1].Outcome != OutcomeOK || got[1].Error != "" {
		t.Errorf("first attempt = %+v", got[1])
	}
}

func TestJournal_AlertRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	event := monitor.AlertEvent{
		CycleID: "cycle-1",
		Adapter: "RX 7900",
		Reading: gpu.FanReading{FanSpeedRPM: gpu.InvalidFanRPM, FanSpeedPct: 0, TempC: 71},
		At:      at,
		Err:     errors.New("beep failed"),
	}
	if err := j.RecordAlert(ctx, event); err != nil {
		t.Fatal(err)
	}
	j.Flush(ctx)

	got, err := j.RecentAlerts(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := AlertRecord{
		CycleID:     "cycle-1",
		Adapter:     "RX 7900",
		FanSpeedRPM: gpu.InvalidFanRPM,
		TempC:       71,
		AlertError:  "beep failed",
	}
	if len(got) != 1 {
		t.Fatalf("got %d alerts", len(got))
	}
	if !got[0].RaisedAt.Equal(at) {
		t.Errorf("RaisedAt = %v, want %v", got[0].RaisedAt, at)
	}
	got[0].RaisedAt = time.Time{}
	if got[0] != want {
		t.Errorf("alert = %+v, want %+v", got[0], want)
	}
}

func TestJournal_Summarize(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	now := time.Now()

	record := func(id, reason string, age time.Duration, err error) {
		t.Helper()
		a := fancontrol.Attempt{ID: id, Trigger: fancontrol.Trigger{Reason: reason}, StartedAt: now.Add(-age), Err: err}
		if err := j.RecordAttempt(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	record("old", fancontrol.ReasonNotRunning, 48*time.Hour, nil)
	record("r1", fancontrol.ReasonNotRunning, time.Hour, nil)
	record("r2", fancontrol.ReasonInvalidFanRPM, time.Minute, errors.New("x"))
	record("r3", fancontrol.ReasonInvalidFanRPM, time.Second, nil)
	j.RecordAlert(ctx, monitor.AlertEvent{CycleID: "c", Adapter: "A", At: now})
	j.Flush(ctx)

	s, err := j.Summarize(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if s.Attempts != 3 || s.FailedAttempts != 1 || s.Alerts != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.ByReason[fancontrol.ReasonInvalidFanRPM] != 2 || s.ByReason[fancontrol.ReasonNotRunning] != 1 {
		t.Errorf("ByReason = %v", s.ByReason)
	}
}

func TestJournal_Prune(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	now := time.Now()

	j.RecordAttempt(ctx, fancontrol.Attempt{ID: "old", Trigger: fancontrol.Trigger{Reason: "manual"}, StartedAt: now.Add(-100 * 24 * time.Hour)})
	j.RecordAttempt(ctx, fancontrol.Attempt{ID: "new", Trigger: fancontrol.Trigger{Reason: "manual"}, StartedAt: now})
	j.RecordAlert(ctx, monitor.AlertEvent{CycleID: "c", Adapter: "A", At: now.Add(-100 * 24 * time.Hour)})
	j.Flush(ctx)

	res, err := j.PruneOlderThan(ctx, DefaultRetention)
	if err != nil {
		t.Fatal(err)
	}
	if res.AttemptsDeleted != 1 || res.AlertsDeleted != 1 || res.Total() != 2 {
		t.Errorf("result = %+v", res)
	}

	left, _ := j.RecentAttempts(ctx, 10)
	if len(left) != 1 || left[0].AttemptID != "new" {
		t.Errorf("remaining = %+v", left)
	}

	if res, _ := j.PruneOlderThan(ctx, 0); res.Total() != 0 {
		t.Error("zero retention must keep everything")
	}
}

func TestJournal_DuplicateAttemptRejectedSync(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	j.Flush(ctx) // synchronous from here on

	a := fancontrol.Attempt{ID: "dup", Trigger: fancontrol.Trigger{Reason: "manual"}, StartedAt: time.Now()}
	if err := j.RecordAttempt(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordAttempt(ctx, a); err == nil {
		t.Error("duplicate attempt id should fail")
	}
}

func TestJournal_WritesAfterClose(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	if err := j.Close(ctx); err != nil {
		t.Fatal(err)
	}
	err := j.RecordAttempt(ctx, fancontrol.Attempt{ID: "late", Trigger: fancontrol.Trigger{Reason: "manual"}})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if err := j.Close(ctx); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
