package core

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ConfigError is a configuration or environment problem the operator can fix.
type ConfigError struct {
	Code    string // stable code for programmatic handling
	Message string
	Action  string // what to do about it
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeEnvFileMissing       = "ENV_FILE_MISSING"
	ErrCodeConfigFileUnreadable = "CONFIG_FILE_UNREADABLE"
	ErrCodeConfigFileInvalid    = "CONFIG_FILE_INVALID"
	ErrCodeMissingConfig        = "MISSING_CONFIG"
	ErrCodeInvalidValue         = "INVALID_VALUE"
	ErrCodeFanToolMissing       = "FAN_TOOL_MISSING"
	ErrCodeFanModeKeyMissing    = "FAN_MODE_KEY_MISSING"
	ErrCodeJournalUnwritable    = "JOURNAL_UNWRITABLE"
	ErrCodeDriverUnavailable    = "DRIVER_UNAVAILABLE"
)

// ErrEnvFileMissing returns an error for an explicitly requested .env file
// that does not exist.
func ErrEnvFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEnvFileMissing,
		Message: fmt.Sprintf("Environment file not found: %s", path),
		Action:  "Copy example.env to .env or remove the -env flag",
	}
}

// ErrMissingConfig returns an error for missing required configuration
func ErrMissingConfig(varName string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in the environment or fanwatch.yaml", varName),
	}
}

// ErrInvalidValue returns an error for a setting that is present but unusable.
func ErrInvalidValue(varName, value, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid %s '%s': %s", varName, value, reason),
		Action:  fmt.Sprintf("Correct %s", varName),
	}
}

// ErrFanToolMissing returns an error when the fan utility cannot be found.
func ErrFanToolMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeFanToolMissing,
		Message: fmt.Sprintf("Fan control utility not found: %s", path),
		Action:  fmt.Sprintf("Install ASRock Tweak Tool or set %s", EnvFanToolExe),
	}
}

// ErrFanModeKeyMissing returns an error when the utility's settings file has
// no fan-mode entry to rewrite.
func ErrFanModeKeyMissing(path, key string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeFanModeKeyMissing,
		Message: fmt.Sprintf("No %s= entry in %s", key, path),
		Action:  fmt.Sprintf("Start the utility once to create its settings, or set %s", EnvFanModeKey),
	}
}

// ErrJournalUnwritable returns an error when the journal directory cannot be used.
func ErrJournalUnwritable(path, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeJournalUnwritable,
		Message: fmt.Sprintf("Cannot write recovery journal %s: %s", path, reason),
		Action:  fmt.Sprintf("Free disk space, fix permissions, or set %s to an empty value to disable the journal", EnvJournalPath),
	}
}

// ErrDriverUnavailable returns an error when the display driver library cannot be loaded.
func ErrDriverUnavailable(reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeDriverUnavailable,
		Message: fmt.Sprintf("AMD display library unavailable: %s", reason),
		Action:  "Install or repair the AMD Adrenalin driver",
	}
}

// IsConfigError reports whether err is or wraps a ConfigError and returns it.
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigError
func GetErrorCode(err error) string {
	if configErr, ok := IsConfigError(err); ok {
		return configErr.Code
	}
	return ""
}

// ConfigErrors flattens an error returned by Config.Validate.
func ConfigErrors(err error) []*ConfigError {
	var out []*ConfigError
	for _, e := range multierr.Errors(err) {
		if ce, ok := IsConfigError(e); ok {
			out = append(out, ce)
		}
	}
	return out
}
