// Package validation runs the startup checks that must pass before the
// watchdog touches the driver or the fan utility.
package validation

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"fanwatch/adl"
	"fanwatch/core"
	"fanwatch/fancontrol"
)

// ValidationStep represents a single validation step with its status.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SuiteResult represents the complete result of validation suite execution.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// Step names, in execution order.
const (
	StepConfiguration   = "Configuration"
	StepFanTool         = "Fan Control Utility"
	StepFanToolSettings = "Fan Utility Settings"
	StepJournal         = "Recovery Journal"
	StepDriver          = "AMD Display Library"
)

// LibraryLoader opens the display library.
type LibraryLoader func() (adl.Library, error)

// ValidationSuite checks configuration, the fan utility, the journal volume
// and the display driver.
type ValidationSuite struct {
	output       io.Writer
	cfg          *core.Config
	loadLibrary  LibraryLoader
	minFreeBytes int64
	showProgress bool
	failFast     bool
}

// NewValidationSuite creates a suite for cfg with default settings.
func NewValidationSuite(cfg *core.Config) *ValidationSuite {
	return &ValidationSuite{
		output:       os.Stdout,
		cfg:          cfg,
		loadLibrary:  adl.LoadLibrary,
		minFreeBytes: DefaultMinFreeBytes,
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// WithFailFast stops validation on first failure if enabled.
func (s *ValidationSuite) WithFailFast(failFast bool) *ValidationSuite {
	s.failFast = failFast
	return s
}

// WithLibraryLoader replaces the driver probe.
func (s *ValidationSuite) WithLibraryLoader(load LibraryLoader) *ValidationSuite {
	s.loadLibrary = load
	return s
}

// WithMinFreeBytes sets the free space required next to the journal.
func (s *ValidationSuite) WithMinFreeBytes(n int64) *ValidationSuite {
	s.minFreeBytes = n
	return s
}

type check struct {
	name string
	fn   func() (StepStatus, string, error)
}

// Validate runs all checks in order. A step that depends on an earlier
// failure is skipped.
func (s *ValidationSuite) Validate() SuiteResult {
	startTime := time.Now()

	if s.showProgress {
		s.printHeader("fanwatch Startup Validation")
	}

	checks := []check{
		{StepConfiguration, s.checkConfiguration},
		{StepFanTool, s.checkFanTool},
		{StepFanToolSettings, s.checkFanToolSettings},
		{StepJournal, s.checkJournal},
		{StepDriver, s.checkDriver},
	}

	steps := make([]ValidationStep, 0, len(checks))
	for i, c := range checks {
		var step ValidationStep
		if i > 0 && steps[0].Status == StepFailed {
			step = ValidationStep{Name: c.name, Status: StepSkipped, Message: "Skipped due to configuration errors"}
			if s.showProgress {
				s.printStep(step)
			}
		} else {
			step = s.runStep(c.name, c.fn)
		}
		steps = append(steps, step)
		if s.failFast && step.Status == StepFailed {
			break
		}
	}

	result := s.buildResult(steps, startTime)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

func (s *ValidationSuite) checkConfiguration() (StepStatus, string, error) {
	if err := s.cfg.Validate(); err != nil {
		problems := core.ConfigErrors(err)
		return StepFailed, fmt.Sprintf("%d problem(s)", len(problems)), err
	}
	return StepPassed, fmt.Sprintf("polling every %v, %s adapters", s.cfg.PollInterval, s.cfg.EnumMode), nil
}

func (s *ValidationSuite) checkFanTool() (StepStatus, string, error) {
	path := s.cfg.FanTool.Executable
	if err := CheckFileExists(path); err != nil {
		return StepFailed, "Not found", core.ErrFanToolMissing(path)
	}
	return StepPassed, filepath.Base(path), nil
}

// checkFanToolSettings only warns when the settings file is absent; the
// utility writes it on first start.
func (s *ValidationSuite) checkFanToolSettings() (StepStatus, string, error) {
	path, key := s.cfg.FanTool.ConfigPath, s.cfg.FanTool.FanModeKey

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StepWarning, "Settings file not created yet", nil
		}
		return StepFailed, "Unreadable", fmt.Errorf("read %s: %w", path, err)
	}
	if !fancontrol.HasFanModeKey(data, key) {
		return StepFailed, "Fan mode entry missing", core.ErrFanModeKeyMissing(path, key)
	}
	return StepPassed, fmt.Sprintf("%s entry present", key), nil
}

func (s *ValidationSuite) checkJournal() (StepStatus, string, error) {
	if !s.cfg.JournalEnabled() {
		return StepSkipped, "Journal disabled", nil
	}
	path := s.cfg.JournalPath

	dir := filepath.Dir(path)
	if err := CheckDirWritable(dir); err != nil {
		return StepFailed, "Not writable", core.ErrJournalUnwritable(path, err.Error())
	}

	space, err := GetDiskSpace(dir)
	if err != nil {
		return StepWarning, "Free space unknown", nil
	}
	if space.Free < s.minFreeBytes {
		return StepFailed, "Low disk space", core.ErrJournalUnwritable(path,
			fmt.Sprintf("only %s free, need %s", FormatBytes(space.Free), FormatBytes(s.minFreeBytes)))
	}
	return StepPassed, fmt.Sprintf("%s free", FormatBytes(space.Free)), nil
}

func (s *ValidationSuite) checkDriver() (StepStatus, string, error) {
	lib, err := s.loadLibrary()
	if err != nil {
		return StepFailed, "Cannot load", core.ErrDriverUnavailable(err.Error())
	}
	if err := lib.Close(); err != nil {
		return StepWarning, fmt.Sprintf("Loaded, release failed: %v", err), nil
	}
	return StepPassed, "Loaded", nil
}

// runStep executes a validation step with timing and progress output.
func (s *ValidationSuite) runStep(name string, fn func() (StepStatus, string, error)) ValidationStep {
	step := ValidationStep{Name: name, Status: StepRunning}

	if s.showProgress {
		s.printStepStart(name)
	}

	startTime := time.Now()
	step.Status, step.Message, step.Error = fn()
	step.Latency = time.Since(startTime)

	if s.showProgress {
		s.printStep(step)
	}

	return step
}

// buildResult creates a SuiteResult from completed steps.
func (s *ValidationSuite) buildResult(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}

	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}

	return result
}

func (s *ValidationSuite) printHeader(title string) {
	fmt.Fprintln(s.output)
	headerColor := color.New(color.FgCyan, color.Bold)
	headerColor.Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

func (s *ValidationSuite) printStepStart(name string) {
	fmt.Fprintf(s.output, "  ◌ %s...", name)
}

func (s *ValidationSuite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	case StepSkipped:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	// Overwrite the "running" line.
	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)

	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}

	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		errColor := color.New(color.FgRed)
		problems := core.ConfigErrors(step.Error)
		if len(problems) == 0 {
			errColor.Fprintf(s.output, "    └─ %s\n", step.Error.Error())
		}
		for _, ce := range problems {
			errColor.Fprintf(s.output, "    └─ %s\n", ce.Error())
		}
	}
}

func (s *ValidationSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)

	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "━━━ Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ━━━")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "━━━ Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ━━━")
	}

	fmt.Fprintln(s.output)
}

// GetErrors returns all errors from failed steps.
func (r SuiteResult) GetErrors() []error {
	errs := make([]error, 0)
	for _, step := range r.Steps {
		if step.Error != nil {
			errs = append(errs, step.Error)
		}
	}
	return errs
}

// GetFirstError returns the first error from failed steps, or nil if all passed.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// Step returns the named step, if it ran.
func (r SuiteResult) Step(name string) (ValidationStep, bool) {
	for _, step := range r.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return ValidationStep{}, false
}

// Summary returns a human-readable summary string.
func (r SuiteResult) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validation %s: ", map[bool]string{true: "Passed", false: "Failed"}[r.Success]))
	sb.WriteString(fmt.Sprintf("%d/%d checks passed", r.PassedSteps, r.TotalSteps))
	if r.FailedSteps > 0 {
		sb.WriteString(fmt.Sprintf(", %d failed", r.FailedSteps))
	}
	if r.Warnings > 0 {
		sb.WriteString(fmt.Sprintf(", %d warnings", r.Warnings))
	}
	sb.WriteString(fmt.Sprintf(" (took %v)", r.Duration.Round(time.Millisecond)))
	return sb.String()
}
