package adl

import (
	"fmt"
	"sort"
)

// MaxSensors is the fixed capacity of the PMLog sensor array.
const MaxSensors = 256

// SensorKind indexes the PMLog sensor array (ADL_PMLOG_SENSORS).
type SensorKind int

const (
	SensorMaxTypes              SensorKind = 0
	ClockGFX                    SensorKind = 1
	ClockMemory                 SensorKind = 2
	ClockSOC                    SensorKind = 3
	ClockUVD1                   SensorKind = 4
	ClockUVD2                   SensorKind = 5
	ClockVCE                    SensorKind = 6
	ClockVCN                    SensorKind = 7
	TemperatureEdge             SensorKind = 8
	TemperatureMemory           SensorKind = 9
	TemperatureVRVDDC           SensorKind = 10
	TemperatureVRMVDD           SensorKind = 11
	TemperatureLiquid           SensorKind = 12
	TemperaturePLX              SensorKind = 13
	FanRPM                      SensorKind = 14
	FanPercentage               SensorKind = 15
	SOCVoltage                  SensorKind = 16
	SOCPower                    SensorKind = 17
	SOCCurrent                  SensorKind = 18
	ActivityGFX                 SensorKind = 19
	ActivityMemory              SensorKind = 20
	GFXVoltage                  SensorKind = 21
	MemoryVoltage               SensorKind = 22
	ASICPower                   SensorKind = 23
	TemperatureVRSOC            SensorKind = 24
	TemperatureVRMVDD0          SensorKind = 25
	TemperatureVRMVDD1          SensorKind = 26
	TemperatureHotspot          SensorKind = 27
	TemperatureGFX              SensorKind = 28
	TemperatureSOC              SensorKind = 29
	GFXPower                    SensorKind = 30
	GFXCurrent                  SensorKind = 31
	TemperatureCPU              SensorKind = 32
	CPUPower                    SensorKind = 33
	ClockCPU                    SensorKind = 34
	ThrottlerStatus             SensorKind = 35
	ClockVCN1Clock1             SensorKind = 36
	ClockVCN1Clock2             SensorKind = 37
	SmartPowerShiftCPU          SensorKind = 38
	SmartPowerShiftDGPU         SensorKind = 39
	BusSpeed                    SensorKind = 40
	BusLanes                    SensorKind = 41
	TemperatureLiquid0          SensorKind = 42
	TemperatureLiquid1          SensorKind = 43
	ClockFCLK                   SensorKind = 44
	ThrottlerStatusCPU          SensorKind = 45
	SmartShiftPairedASICPower   SensorKind = 46
	SmartShiftTotalPowerLimit   SensorKind = 47
	SmartShiftAPUPowerLimit     SensorKind = 48
	SmartShiftDGPUPowerLimit    SensorKind = 49
	TemperatureHotspotGCD       SensorKind = 50
	TemperatureHotspotMCD       SensorKind = 51
)

var sensorNames = map[SensorKind]string{
	SensorMaxTypes:            "max_types",
	ClockGFX:                  "clk_gfx",
	ClockMemory:               "clk_mem",
	ClockSOC:                  "clk_soc",
	ClockUVD1:                 "clk_uvd1",
	ClockUVD2:                 "clk_uvd2",
	ClockVCE:                  "clk_vce",
	ClockVCN:                  "clk_vcn",
	TemperatureEdge:           "temp_edge",
	TemperatureMemory:         "temp_mem",
	TemperatureVRVDDC:         "temp_vrvddc",
	TemperatureVRMVDD:         "temp_vrmvdd",
	TemperatureLiquid:         "temp_liquid",
	TemperaturePLX:            "temp_plx",
	FanRPM:                    "fan_rpm",
	FanPercentage:             "fan_percentage",
	SOCVoltage:                "soc_voltage",
	SOCPower:                  "soc_power",
	SOCCurrent:                "soc_current",
	ActivityGFX:               "activity_gfx",
	ActivityMemory:            "activity_mem",
	GFXVoltage:                "gfx_voltage",
	MemoryVoltage:             "mem_voltage",
	ASICPower:                 "asic_power",
	TemperatureVRSOC:          "temp_vrsoc",
	TemperatureVRMVDD0:        "temp_vrmvdd0",
	TemperatureVRMVDD1:        "temp_vrmvdd1",
	TemperatureHotspot:        "temp_hotspot",
	TemperatureGFX:            "temp_gfx",
	TemperatureSOC:            "temp_soc",
	GFXPower:                  "gfx_power",
	GFXCurrent:                "gfx_current",
	TemperatureCPU:            "temp_cpu",
	CPUPower:                  "cpu_power",
	ClockCPU:                  "clk_cpu",
	ThrottlerStatus:           "throttler_status",
	ClockVCN1Clock1:           "clk_vcn1_1",
	ClockVCN1Clock2:           "clk_vcn1_2",
	SmartPowerShiftCPU:        "smartshift_cpu",
	SmartPowerShiftDGPU:       "smartshift_dgpu",
	BusSpeed:                  "bus_speed",
	BusLanes:                  "bus_lanes",
	TemperatureLiquid0:        "temp_liquid0",
	TemperatureLiquid1:        "temp_liquid1",
	ClockFCLK:                 "clk_fclk",
	ThrottlerStatusCPU:        "throttler_status_cpu",
	SmartShiftPairedASICPower: "smartshift_paired_asic_power",
	SmartShiftTotalPowerLimit: "smartshift_total_power_limit",
	SmartShiftAPUPowerLimit:   "smartshift_apu_power_limit",
	SmartShiftDGPUPowerLimit:  "smartshift_dgpu_power_limit",
	TemperatureHotspotGCD:     "temp_hotspot_gcd",
	TemperatureHotspotMCD:     "temp_hotspot_mcd",
}

// knownSensors holds every SensorKind in index order.
var knownSensors = func() []SensorKind {
	kinds := make([]SensorKind, 0, len(sensorNames))
	for k := range sensorNames {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}()

// KnownSensors returns every sensor kind in index order.
func KnownSensors() []SensorKind {
	out := make([]SensorKind, len(knownSensors))
	copy(out, knownSensors)
	return out
}

// String returns the short name of the sensor kind.
func (k SensorKind) String() string {
	if name, ok := sensorNames[k]; ok {
		return name
	}
	return fmt.Sprintf("sensor(%d)", int(k))
}

// SensorReading is one decoded sensor slot.
type SensorReading struct {
	Supported bool
	Value     int32
}

// SensorMap holds the sensors present in one PMLog query.
// A kind that is absent was beyond the reported size, which is different
// from a present reading with Supported == false.
type SensorMap struct {
	readings map[SensorKind]SensorReading
}

// DecodeSensorMap builds a SensorMap from the raw PMLog array.
// Only known kinds whose index is <= reportedSize are copied; slots past the
// reported size are ignored whatever they contain.
func DecodeSensorMap(raw *[MaxSensors]RawSensor, reportedSize int) SensorMap {
	m := SensorMap{readings: make(map[SensorKind]SensorReading)}
	if raw == nil {
		return m
	}
	for _, kind := range knownSensors {
		if int(kind) > reportedSize {
			break
		}
		slot := raw[kind]
		m.readings[kind] = SensorReading{
			Supported: slot.Supported != 0,
			Value:     slot.Value,
		}
	}
	return m
}

// Lookup returns the reading for kind or a *MissingSensorError.
func (m SensorMap) Lookup(kind SensorKind) (SensorReading, error) {
	r, ok := m.readings[kind]
	if !ok {
		return SensorReading{}, &MissingSensorError{Kind: kind}
	}
	return r, nil
}

// Has reports whether kind is present.
func (m SensorMap) Has(kind SensorKind) bool {
	_, ok := m.readings[kind]
	return ok
}

// Len returns the number of present sensor kinds.
func (m SensorMap) Len() int {
	return len(m.readings)
}

// Kinds returns the present sensor kinds in index order.
func (m SensorMap) Kinds() []SensorKind {
	kinds := make([]SensorKind, 0, len(m.readings))
	for k := range m.readings {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
