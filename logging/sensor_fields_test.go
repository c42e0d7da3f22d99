package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFanFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewFromCore(core)

	logger.Info("fan reading", append(FanFields("RX 6800", 65535, 0, 71), CycleField("c-1"))...)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	fields := entries[0].ContextMap()

	want := map[string]interface{}{
		KeyAdapter: "RX 6800",
		KeyFanRPM:  int32(65535),
		KeyFanPct:  int32(0),
		KeyTempC:   int32(71),
		KeyCycleID: "c-1",
	}
	for key, value := range want {
		if fields[key] != value {
			t.Errorf("%s = %v (%T), want %v", key, fields[key], fields[key], value)
		}
	}
}

func TestRecoveryFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewFromCore(core).Warn("step failed", AttemptField("a-1"), StepField("launch_fixed"), AdapterField("RX 7900"))

	fields := logs.All()[0].ContextMap()
	if fields[KeyAttemptID] != "a-1" || fields[KeyRecoverStep] != "launch_fixed" || fields[KeyAdapter] != "RX 7900" {
		t.Errorf("fields = %v", fields)
	}
}
