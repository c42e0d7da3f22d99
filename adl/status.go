// Package adl provides a typed binding over the AMD Display Library (ADL).
//
// The library is loaded dynamically and is not thread-safe: every call made
// through a Session must come from the same goroutine, one at a time.
package adl

import "fmt"

// Status is the decoded result code of an ADL call.
type Status int32

// Success family. ADL reports these as non-negative codes.
const (
	OK           Status = 0
	OKWarning    Status = 1
	OKModeChange Status = 2
	OKRestart    Status = 3
	OKWait       Status = 4
)

// Failure family.
const (
	Err                       Status = -1
	ErrNotInit                Status = -2
	ErrInvalidParam           Status = -3
	ErrInvalidParamSize       Status = -4
	ErrInvalidAdapterIndex    Status = -5
	ErrInvalidControllerIndex Status = -6
	ErrInvalidDisplayIndex    Status = -7
	ErrNotSupported           Status = -8
	ErrNullPointer            Status = -9
	ErrDisabledAdapter        Status = -10
	ErrInvalidCallback        Status = -11
	ErrResourceConflict       Status = -12
	ErrSetIncomplete          Status = -20
	ErrNoXDisplay             Status = -21
	ErrIncompatibleDriver     Status = -22
)

var statusNames = map[Status]string{
	OK:                        "ok",
	OKWarning:                 "ok_warning",
	OKModeChange:              "ok_mode_change",
	OKRestart:                 "ok_restart",
	OKWait:                    "ok_wait",
	Err:                       "error",
	ErrNotInit:                "not_initialized",
	ErrInvalidParam:           "invalid_param",
	ErrInvalidParamSize:       "invalid_param_size",
	ErrInvalidAdapterIndex:    "invalid_adapter_index",
	ErrInvalidControllerIndex: "invalid_controller_index",
	ErrInvalidDisplayIndex:    "invalid_display_index",
	ErrNotSupported:           "not_supported",
	ErrNullPointer:            "null_pointer",
	ErrDisabledAdapter:        "disabled_adapter",
	ErrInvalidCallback:        "invalid_callback",
	ErrResourceConflict:       "resource_conflict",
	ErrSetIncomplete:          "set_incomplete",
	ErrNoXDisplay:             "no_x_display",
	ErrIncompatibleDriver:     "incompatible_driver",
}

// String returns the snake_case name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int32(s))
}

// Known reports whether s is part of the closed ADL status set.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// Success reports whether s belongs to the success family.
func (s Status) Success() bool {
	return s >= OK && s <= OKWait
}

// DecodeStatus maps a raw ADL return code onto the status taxonomy.
//
// A success code yields (status, nil). A known failure code yields the status
// and a *StatusError carrying it. A code outside the known set yields a
// *DecodeError: the library has broken its contract and the operation that
// produced the code must be abandoned.
func DecodeStatus(op string, raw int32) (Status, error) {
	s := Status(raw)
	if !s.Known() {
		return s, &DecodeError{Op: op, Raw: raw}
	}
	if s.Success() {
		return s, nil
	}
	return s, &StatusError{Op: op, Status: s}
}
