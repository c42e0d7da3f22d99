package adl

// EnumMode selects which adapters ADL enumerates.
type EnumMode int32

const (
	// EnumAll includes adapters that were ever present on the machine.
	EnumAll EnumMode = 0
	// EnumConnected includes only adapters that are present now.
	EnumConnected EnumMode = 1
)

// String returns the mode name used in configuration.
func (m EnumMode) String() string {
	switch m {
	case EnumAll:
		return "all"
	case EnumConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// ParseEnumMode parses "connected" or "all".
func ParseEnumMode(s string) (EnumMode, bool) {
	switch s {
	case "connected", "1":
		return EnumConnected, true
	case "all", "0":
		return EnumAll, true
	}
	return 0, false
}

// ContextHandle is the opaque ADL2 context pointer.
type ContextHandle uintptr

// Library is the raw native capability set.
//
// Every call returns the raw ADL status code and an error that is non-nil only
// when the entry point could not be resolved (wrapping ErrSymbolUnavailable).
// Status interpretation is left to Session. The Windows implementation is
// returned by LoadLibrary; tests supply fakes.
type Library interface {
	MainControlCreate(mode EnumMode) (int32, error)
	MainControlDestroy() (int32, error)
	Main2ControlCreate(mode EnumMode, out *ContextHandle) (int32, error)
	Main2ControlDestroy(ctx ContextHandle) (int32, error)
	AdapterNumberOfAdaptersGet(count *int32) (int32, error)
	// AdapterInfoGet fills buf; size is the buffer length in bytes.
	AdapterInfoGet(buf []RawAdapterInfo, size int32) (int32, error)
	AdapterActiveGet(index int32, active *int32) (int32, error)
	New2QueryPMLogDataGet(ctx ContextHandle, index int32, out *RawPMLogData) (int32, error)
	// Close releases the library handle.
	Close() error
}

// Native entry point names.
const (
	procMainControlCreate     = "ADL_Main_Control_Create"
	procMainControlDestroy    = "ADL_Main_Control_Destroy"
	procMain2ControlCreate    = "ADL2_Main_Control_Create"
	procMain2ControlDestroy   = "ADL2_Main_Control_Destroy"
	procNumberOfAdaptersGet   = "ADL_Adapter_NumberOfAdapters_Get"
	procAdapterInfoGet        = "ADL_Adapter_AdapterInfo_Get"
	procAdapterActiveGet      = "ADL_Adapter_Active_Get"
	procNew2QueryPMLogDataGet = "ADL2_New_QueryPMLogData_Get"
)

// Library file names, tried in order.
var libraryNames = []string{"atiadlxx.dll", "atiadlxy.dll"}
