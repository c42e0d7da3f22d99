package adl

import (
	"bytes"
	"unsafe"
)

// AdapterInfoSize is the size in bytes of one ADL AdapterInfo record on Windows.
const AdapterInfoSize = 1572

// RawAdapterInfo mirrors the C AdapterInfo record field for field.
// All members are 4-byte ints or byte arrays, so Go lays it out without padding.
type RawAdapterInfo struct {
	Size           int32
	AdapterIndex   int32
	UDID           [256]byte
	BusNumber      int32
	DeviceNumber   int32
	FunctionNumber int32
	VendorID       int32
	AdapterName    [256]byte
	DisplayName    [256]byte
	Present        int32
	Exist          int32
	DriverPath     [256]byte
	DriverPathExt  [256]byte
	PNPString      [256]byte
	OSDisplayIndex int32
}

// RawSensor is one slot of ADLPMLogDataOutput.
type RawSensor struct {
	Supported int32
	Value     int32
}

// RawPMLogData mirrors ADLPMLogDataOutput.
type RawPMLogData struct {
	Size    int32
	Sensors [MaxSensors]RawSensor
}

// rawAdapterInfoSize is checked against AdapterInfoSize before any buffer is
// handed to the library.
var rawAdapterInfoSize = int(unsafe.Sizeof(RawAdapterInfo{}))

// AdapterInfo is the decoded, immutable description of one adapter.
type AdapterInfo struct {
	Index          int
	VendorID       int
	Name           string
	DisplayName    string
	UDID           string
	Present        bool
	Exist          bool
	BusNumber      int
	DeviceNumber   int
	FunctionNumber int
	DriverPath     string
	DriverPathExt  string
	PNPString      string
	OSDisplayIndex int
}

// Decode converts the raw record. Text fields end at the first NUL byte.
func (r *RawAdapterInfo) Decode() AdapterInfo {
	return AdapterInfo{
		Index:          int(r.AdapterIndex),
		VendorID:       int(r.VendorID),
		Name:           cString(r.AdapterName[:]),
		DisplayName:    cString(r.DisplayName[:]),
		UDID:           cString(r.UDID[:]),
		Present:        r.Present != 0,
		Exist:          r.Exist != 0,
		BusNumber:      int(r.BusNumber),
		DeviceNumber:   int(r.DeviceNumber),
		FunctionNumber: int(r.FunctionNumber),
		DriverPath:     cString(r.DriverPath[:]),
		DriverPathExt:  cString(r.DriverPathExt[:]),
		PNPString:      cString(r.PNPString[:]),
		OSDisplayIndex: int(r.OSDisplayIndex),
	}
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// SetCString copies s into a fixed-size field, NUL terminated and truncated to fit.
// Used by fakes and tests to build raw records.
func SetCString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	if len(dst) == 0 {
		return
	}
	n := copy(dst[:len(dst)-1], s)
	dst[n] = 0
}
