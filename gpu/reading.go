package gpu

import (
	"go.uber.org/zap/zapcore"

	"fanwatch/adl"
	"fanwatch/logging"
)

// InvalidFanRPM is the value ADL reports when the fan tachometer cannot be read.
const InvalidFanRPM = 65535

// FanReading is the subset of sensors the watchdog acts on.
type FanReading struct {
	FanSpeedRPM int32
	FanSpeedPct int32
	TempC       int32
}

// Invalid reports whether the fan RPM carries the sentinel value.
func (r FanReading) Invalid() bool {
	return r.FanSpeedRPM == InvalidFanRPM
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (r FanReading) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt32(logging.KeyFanRPM, r.FanSpeedRPM)
	enc.AddInt32(logging.KeyFanPct, r.FanSpeedPct)
	enc.AddInt32(logging.KeyTempC, r.TempC)
	return nil
}

// ExtractFanReading pulls fan RPM, fan percentage and hotspot temperature
// from m. The first missing kind is returned as an *adl.MissingSensorError.
func ExtractFanReading(m adl.SensorMap) (FanReading, error) {
	rpm, err := m.Lookup(adl.FanRPM)
	if err != nil {
		return FanReading{}, err
	}
	pct, err := m.Lookup(adl.FanPercentage)
	if err != nil {
		return FanReading{}, err
	}
	temp, err := m.Lookup(adl.TemperatureHotspot)
	if err != nil {
		return FanReading{}, err
	}
	return FanReading{
		FanSpeedRPM: rpm.Value,
		FanSpeedPct: pct.Value,
		TempC:       temp.Value,
	}, nil
}

// AdapterReading is the outcome of reading one adapter. Exactly one of
// Reading and Err is meaningful.
type AdapterReading struct {
	Adapter adl.AdapterInfo
	Reading FanReading
	Err     error
}
