package logging

import (
	"go.uber.org/zap"
)

// Keys shared by every reading and recovery log line.
const (
	KeyAdapter     = "adapter"
	KeyFanRPM      = "fan_speed_rpm"
	KeyFanPct      = "fan_speed_pct"
	KeyTempC       = "temp_c"
	KeyCycleID     = "cycle_id"
	KeyAttemptID   = "attempt_id"
	KeyRecoverStep = "step"
)

// FanFields returns the fields for one adapter reading.
//
// Example:
//
//	logger.Info("fan reading", FanFields("AMD Radeon RX 6800", 1450, 38, 71)...)
func FanFields(adapter string, rpm, pct, tempC int32) []zap.Field {
	return []zap.Field{
		zap.String(KeyAdapter, adapter),
		zap.Int32(KeyFanRPM, rpm),
		zap.Int32(KeyFanPct, pct),
		zap.Int32(KeyTempC, tempC),
	}
}

// AdapterField names the adapter a log line refers to.
func AdapterField(name string) zap.Field {
	return zap.String(KeyAdapter, name)
}

// CycleField tags entries belonging to one poll cycle.
func CycleField(id string) zap.Field {
	return zap.String(KeyCycleID, id)
}

// AttemptField tags entries belonging to one recovery attempt.
func AttemptField(id string) zap.Field {
	return zap.String(KeyAttemptID, id)
}

// StepField names a recovery step.
func StepField(step string) zap.Field {
	return zap.String(KeyRecoverStep, step)
}
