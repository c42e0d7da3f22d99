package core

// Exit codes for the application.
// Signal-based exits follow the Unix convention of 128 + signal number.
const (
	ExitCodeSuccess = 0

	// ExitCodeError covers fatal telemetry failures and unexpected errors.
	ExitCodeError = 1

	// ExitCodeConfig means the configuration or environment failed validation.
	ExitCodeConfig = 78

	// ExitCodeUnavailable means the display driver or an AMD adapter is missing.
	ExitCodeUnavailable = 69

	// ExitCodeSIGINT is 128 + 2.
	ExitCodeSIGINT = 130

	// ExitCodeSIGTERM is 128 + 15.
	ExitCodeSIGTERM = 143
)

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeConfig:
		return "configuration error"
	case ExitCodeUnavailable:
		return "driver or adapter unavailable"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}

// IsSignalExit returns true if the exit code indicates a signal-based termination.
func IsSignalExit(code int) bool {
	return code == ExitCodeSIGINT || code == ExitCodeSIGTERM
}
