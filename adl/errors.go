package adl

import (
	"errors"
	"fmt"
)

// Sentinel errors for binding failures.
// These are used for error checking with errors.Is().
var (
	// ErrLibraryUnavailable indicates neither ADL library file could be loaded.
	ErrLibraryUnavailable = errors.New("ADL library not available")

	// ErrSymbolUnavailable indicates a required entry point is missing from the
	// loaded library. The binding cannot be used further.
	ErrSymbolUnavailable = errors.New("ADL symbol not available")

	// ErrDecode indicates ADL returned a status code outside the known set.
	ErrDecode = errors.New("unrecognized ADL status code")

	// ErrFailureStatus matches every *StatusError.
	ErrFailureStatus = errors.New("ADL call failed")

	// ErrControlNotCreated indicates an operation ran before CreateControl.
	ErrControlNotCreated = errors.New("ADL control not created")

	// ErrControlExists indicates CreateControl was called twice.
	ErrControlExists = errors.New("ADL control already created")

	// ErrContextExists indicates a second context was requested while one is live.
	ErrContextExists = errors.New("ADL context already created")

	// ErrContextLive indicates the control handle was destroyed before the context.
	ErrContextLive = errors.New("ADL context must be destroyed before control")

	// ErrInvalidContext indicates a nil, foreign or already destroyed context.
	ErrInvalidContext = errors.New("ADL context is not valid")

	// ErrMissingSensor indicates a sensor kind is absent from a decoded map.
	ErrMissingSensor = errors.New("sensor not present")
)

// StatusError is a recognised ADL failure status returned by a call.
type StatusError struct {
	Op     string // ADL entry point that failed
	Status Status // failure status reported by the library
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("adl %s: %s (code: %d)", e.Op, e.Status, int32(e.Status))
}

// Is reports whether target is ErrFailureStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrFailureStatus
}

// DecodeError is a status code that matches no known ADL status.
type DecodeError struct {
	Op  string
	Raw int32
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("adl %s: unrecognized status code %d", e.Op, e.Raw)
}

// Unwrap returns ErrDecode so callers can use errors.Is.
func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// MissingSensorError names the sensor kind a lookup could not find.
type MissingSensorError struct {
	Kind SensorKind
}

// Error implements the error interface.
func (e *MissingSensorError) Error() string {
	return fmt.Sprintf("sensor %s not present", e.Kind)
}

// Unwrap returns ErrMissingSensor so callers can use errors.Is.
func (e *MissingSensorError) Unwrap() error {
	return ErrMissingSensor
}

// IsFatal reports whether err means the binding can no longer be trusted:
// a decode failure or a missing library/symbol.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrLibraryUnavailable) ||
		errors.Is(err, ErrSymbolUnavailable)
}

// StatusOf extracts the failure status from err, if it carries one.
func StatusOf(err error) (Status, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
