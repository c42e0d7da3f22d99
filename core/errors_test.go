package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigError_Error(t *testing.T) {
	err := ErrFanToolMissing(`C:\x.exe`)
	msg := err.Error()
	if !strings.Contains(msg, `C:\x.exe`) || !strings.Contains(msg, EnvFanToolExe) {
		t.Errorf("message lacks path or action: %q", msg)
	}

	bare := &ConfigError{Message: "just this"}
	if bare.Error() != "just this" {
		t.Errorf("got %q", bare.Error())
	}
}

func TestIsConfigError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("startup: %w", ErrDriverUnavailable("no dll"))

	ce, ok := IsConfigError(wrapped)
	if !ok || ce.Code != ErrCodeDriverUnavailable {
		t.Fatalf("IsConfigError = %v, %v", ce, ok)
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Error("plain error should have no code")
	}
}

func TestErrorConstructorsCodes(t *testing.T) {
	tests := []struct {
		err  *ConfigError
		code string
	}{
		{ErrEnvFileMissing(".env"), ErrCodeEnvFileMissing},
		{ErrMissingConfig("X"), ErrCodeMissingConfig},
		{ErrInvalidValue("X", "1", "bad"), ErrCodeInvalidValue},
		{ErrFanToolMissing("p"), ErrCodeFanToolMissing},
		{ErrFanModeKeyMissing("p", "FanMode"), ErrCodeFanModeKeyMissing},
		{ErrJournalUnwritable("p", "full"), ErrCodeJournalUnwritable},
		{ErrDriverUnavailable("r"), ErrCodeDriverUnavailable},
	}
	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("code = %q, want %q", tt.err.Code, tt.code)
		}
		if tt.err.Action == "" {
			t.Errorf("%s has no action", tt.code)
		}
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		code   int
		name   string
		signal bool
	}{
		{ExitCodeSuccess, "success", false},
		{ExitCodeError, "error", false},
		{ExitCodeConfig, "configuration error", false},
		{ExitCodeUnavailable, "driver or adapter unavailable", false},
		{ExitCodeSIGINT, "interrupted (SIGINT)", true},
		{ExitCodeSIGTERM, "terminated (SIGTERM)", true},
		{42, "unknown", false},
	}
	for _, tt := range tests {
		if got := ExitCodeName(tt.code); got != tt.name {
			t.Errorf("ExitCodeName(%d) = %q, want %q", tt.code, got, tt.name)
		}
		if got := IsSignalExit(tt.code); got != tt.signal {
			t.Errorf("IsSignalExit(%d) = %v", tt.code, got)
		}
	}
}

func TestBuildLdflags(t *testing.T) {
	got := BuildLdflags("v1.2.0", "", "abc1234")
	want := "-X fanwatch/core.Version=v1.2.0 -X fanwatch/core.GitCommit=abc1234"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if BuildLdflags("", "", "") != "" {
		t.Error("expected empty flags")
	}
}
