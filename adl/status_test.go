package adl

import (
	"errors"
	"testing"
)

func TestDecodeStatus(t *testing.T) {
	tests := []struct {
		name       string
		raw        int32
		wantStatus Status
		wantErr    bool
		wantDecode bool
	}{
		{"ok", 0, OK, false, false},
		{"ok warning", 1, OKWarning, false, false},
		{"ok mode change", 2, OKModeChange, false, false},
		{"ok restart", 3, OKRestart, false, false},
		{"ok wait", 4, OKWait, false, false},
		{"generic error", -1, Err, true, false},
		{"not init", -2, ErrNotInit, true, false},
		{"invalid param size", -4, ErrInvalidParamSize, true, false},
		{"not supported", -8, ErrNotSupported, true, false},
		{"resource conflict", -12, ErrResourceConflict, true, false},
		{"set incomplete", -20, ErrSetIncomplete, true, false},
		{"incompatible driver", -22, ErrIncompatibleDriver, true, false},
		{"gap in failure codes", -13, Status(-13), true, true},
		{"past last success", 5, Status(5), true, true},
		{"past last failure", -23, Status(-23), true, true},
		{"large", 1 << 20, Status(1 << 20), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := DecodeStatus("op", tt.raw)
			if st != tt.wantStatus {
				t.Errorf("status = %v, want %v", st, tt.wantStatus)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrDecode); got != tt.wantDecode {
				t.Errorf("errors.Is(err, ErrDecode) = %v, want %v", got, tt.wantDecode)
			}
			if tt.wantErr && !tt.wantDecode {
				var se *StatusError
				if !errors.As(err, &se) {
					t.Fatalf("expected *StatusError, got %T", err)
				}
				if se.Status != tt.wantStatus || se.Op != "op" {
					t.Errorf("StatusError = %+v", se)
				}
				if IsFatal(err) {
					t.Error("domain failure should not be fatal")
				}
			}
			if tt.wantDecode && !IsFatal(err) {
				t.Error("decode failure should be fatal")
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	if got := ErrNotSupported.String(); got != "not_supported" {
		t.Errorf("String() = %q", got)
	}
	if got := Status(-99).String(); got != "unknown(-99)" {
		t.Errorf("String() = %q", got)
	}
}

func TestStatusOf(t *testing.T) {
	_, err := DecodeStatus("op", -10)
	st, ok := StatusOf(err)
	if !ok || st != ErrDisabledAdapter {
		t.Errorf("StatusOf = %v, %v", st, ok)
	}
	if !errors.Is(err, ErrFailureStatus) {
		t.Error("StatusError should match ErrFailureStatus")
	}
	if _, ok := StatusOf(errors.New("plain")); ok {
		t.Error("plain error should carry no status")
	}
}
