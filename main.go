package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fanwatch/adl"
	"fanwatch/alert"
	"fanwatch/core"
	"fanwatch/core/validation"
	"fanwatch/db"
	"fanwatch/fancontrol"
	"fanwatch/gpu"
	"fanwatch/logging"
	"fanwatch/monitor"
	"fanwatch/shutdown"
)

func main() {
	if HandleServiceCommand(os.Args) {
		return
	}

	isService, err := RunAsService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	if isService {
		return
	}

	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

// runCLI parses args and dispatches to a subcommand. It returns the process
// exit code.
func runCLI(args []string, stdout, stderr io.Writer) int {
	cmd, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, errHelp) {
			return core.ExitCodeSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return core.ExitCodeConfig
	}

	switch cmd.name {
	case cmdVersion:
		fmt.Fprintln(stdout, core.GetVersionInfo())
		return core.ExitCodeSuccess
	case cmdHistory:
		return runHistory(cmd, stdout, stderr)
	case cmdReset:
		return runReset(cmd, stdout, stderr)
	case cmdValidate:
		return runValidate(cmd, stdout, stderr)
	default:
		return runWatchdog(cmd, stdout, stderr, nil)
	}
}

// bootstrap loads the environment file and configuration and builds the
// logger. Errors are printed to stderr.
func bootstrap(cmd command, stderr io.Writer) (*core.Config, *logging.Logger, int) {
	if _, err := core.LoadEnvFile(cmd.envFile); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, nil, core.ExitCodeConfig
	}

	var cfg *core.Config
	var err error
	if cmd.configFile != "" {
		cfg, err = core.LoadConfigFile(cmd.configFile)
	} else {
		cfg, err = core.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, nil, core.ExitCodeConfig
	}

	logger, err := logging.NewLogger(logging.Options{
		Level:       logging.ParseLogLevelString(cfg.Log.Level, zapcore.InfoLevel),
		Development: cfg.DevMode,
		FilePath:    cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return nil, nil, core.ExitCodeError
	}
	return cfg, logger, core.ExitCodeSuccess
}

// validationExitCode maps a failed validation run to an exit code. A missing
// driver is reported as unavailable; everything else is a configuration
// problem.
func validationExitCode(result validation.SuiteResult) int {
	if result.Success {
		return core.ExitCodeSuccess
	}
	if step, ok := result.Step(validation.StepDriver); ok && step.Status == validation.StepFailed {
		return core.ExitCodeUnavailable
	}
	return core.ExitCodeConfig
}

func runStartupValidation(cfg *core.Config, logger *logging.Logger, stdout io.Writer) int {
	result := validation.NewValidationSuite(cfg).WithOutput(stdout).Validate()
	if result.Success {
		logger.Info("Startup validation passed",
			zap.Int("checks_passed", result.PassedSteps),
			zap.Int("warnings", result.Warnings),
			zap.Duration("duration", result.Duration),
		)
		return core.ExitCodeSuccess
	}

	for _, step := range result.Steps {
		if step.Status == validation.StepFailed {
			logger.Error("Validation step failed",
				zap.String("step", step.Name),
				zap.String("message", step.Message),
				zap.Error(step.Error),
			)
		}
	}
	return validationExitCode(result)
}

// watchdogConfig translates the fan-tool settings.
func watchdogConfig(cfg *core.Config) fancontrol.Config {
	return fancontrol.Config{
		Executable:    cfg.FanTool.Executable,
		MatchFragment: cfg.FanTool.EffectiveMatchFragment(),
		ConfigPath:    cfg.FanTool.ConfigPath,
		FanModeKey:    cfg.FanTool.FanModeKey,
	}
}

// openJournal opens the recovery journal and prunes old rows. A journal that
// cannot be opened is logged and monitoring continues without it.
func openJournal(ctx context.Context, cfg *core.Config, logger *logging.Logger) *db.Journal {
	if !cfg.JournalEnabled() {
		logger.Info("Recovery journal disabled")
		return nil
	}

	journal, err := db.OpenJournal(ctx, cfg.JournalPath, logger)
	if err != nil {
		logger.Error("Failed to open recovery journal, continuing without it",
			zap.String("path", cfg.JournalPath),
			zap.Error(err),
		)
		return nil
	}

	res, err := journal.PruneOlderThan(ctx, cfg.JournalRetention)
	if err != nil {
		logger.Warn("Journal pruning failed", zap.Error(err))
	} else if res.Total() > 0 {
		logger.Info("Pruned recovery journal",
			zap.Int64("attempts_deleted", res.AttemptsDeleted),
			zap.Int64("alerts_deleted", res.AlertsDeleted),
			zap.Duration("retention", cfg.JournalRetention),
		)
	}
	logger.Info("Recovery journal open", zap.String("path", cfg.JournalPath))
	return journal
}

// openTelemetry loads the display library and opens the adapter session.
func openTelemetry(cfg *core.Config, logger *logging.Logger) (*gpu.GPU, int) {
	lib, err := adl.LoadLibrary()
	if err != nil {
		logger.Error("Failed to load AMD Display Library", zap.Error(err))
		return nil, core.ExitCodeUnavailable
	}

	mode, _ := adl.ParseEnumMode(cfg.EnumMode)
	telemetry, err := gpu.Open(lib, mode, logger.Named("gpu"))
	if err != nil {
		logger.Error("Failed to open adapter session", zap.Error(err))
		if errors.Is(err, gpu.ErrNoAdapters) || adl.IsFatal(err) {
			return nil, core.ExitCodeUnavailable
		}
		return nil, core.ExitCodeError
	}
	return telemetry, core.ExitCodeSuccess
}

// runWatchdog monitors the fans until a signal, a service stop or a fatal
// telemetry error. started, if set, receives the shutdown manager once the
// loop is about to begin.
func runWatchdog(cmd command, stdout, stderr io.Writer, started func(*shutdown.Manager)) int {
	// Every ADL call, from open through teardown, stays on this thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cfg, logger, code := bootstrap(cmd, stderr)
	if code != core.ExitCodeSuccess {
		return code
	}
	defer logger.Sync()

	logger.Info("fanwatch starting",
		zap.String("version", core.Version),
		zap.String("git_commit", core.GitCommit),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.String("enum_mode", cfg.EnumMode),
		zap.String("fan_tool", cfg.FanTool.Executable),
		zap.Bool("dev_mode", cfg.DevMode),
	)

	if code := runStartupValidation(cfg, logger, stdout); code != core.ExitCodeSuccess {
		return code
	}

	m := shutdown.NewManager(logger)
	m.Register("logger", shutdown.PriorityLogger, func(context.Context) error {
		// Console sync reports EINVAL on terminals; the file core flushes regardless.
		_ = logger.Sync()
		return nil
	})

	journal := openJournal(m.Context(), cfg, logger)
	if journal != nil {
		m.Register("journal", shutdown.PriorityJournal, journal.Close)
	}

	telemetry, code := openTelemetry(cfg, logger)
	if code != core.ExitCodeSuccess {
		m.Shutdown()
		return code
	}
	defer telemetry.Close()
	m.Register("telemetry", shutdown.PriorityTelemetry, func(context.Context) error {
		return telemetry.Close()
	})

	watchdogOpts := []fancontrol.Option{
		fancontrol.WithStartupWaiter(fancontrol.FixedDelay{Delay: cfg.FanTool.StartupDelay}),
	}
	pollerOpts := []monitor.Option{}
	if journal != nil {
		watchdogOpts = append(watchdogOpts, fancontrol.WithRecorder(journal))
		pollerOpts = append(pollerOpts, monitor.WithAlertRecorder(journal))
	}

	watchdog := fancontrol.NewWatchdog(watchdogConfig(cfg), fancontrol.SystemProcessTable{}, logger, watchdogOpts...)
	beeper := alert.NewBeeper(alert.Tone{FrequencyHz: cfg.Alert.FrequencyHz, Duration: cfg.Alert.Duration})
	poller := monitor.New(telemetry, watchdog, beeper, logger, pollerOpts...)

	m.Start()
	if started != nil {
		started(m)
	}

	runErr := poller.Run(m.Context(), cfg.PollInterval, m.WrapOperation)
	if runErr != nil {
		logger.Error("Monitoring stopped on fatal error", zap.Error(runErr))
	}

	if err := m.Shutdown(); err != nil {
		fmt.Fprintf(stderr, "Shutdown completed with errors: %v\n", err)
	}

	if runErr != nil {
		return core.ExitCodeError
	}
	return m.ExitCode()
}
