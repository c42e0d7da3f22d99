package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"fanwatch/core"
	"fanwatch/core/validation"
	"fanwatch/db"
	"fanwatch/fancontrol"
	"fanwatch/logging"
)

// Subcommands handled by runCLI. Service management commands are handled
// earlier by HandleServiceCommand.
const (
	cmdRun      = "run"
	cmdHistory  = "history"
	cmdReset    = "reset"
	cmdValidate = "validate"
	cmdVersion  = "version"
)

var errHelp = errors.New("help requested")

// command is a parsed command line.
type command struct {
	name       string
	envFile    string
	configFile string

	// history only
	limit int
	since time.Duration
}

// parseArgs parses args (without the program name). The first argument
// names the subcommand unless it is a flag, in which case the watchdog runs.
func parseArgs(args []string, stderr io.Writer) (command, error) {
	cmd := command{name: cmdRun}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd.name = args[0]
		args = args[1:]
	}

	switch cmd.name {
	case cmdRun, cmdHistory, cmdReset, cmdValidate, cmdVersion:
	default:
		return command{}, fmt.Errorf("unknown command %q (run \"fanwatch help\" for usage)", cmd.name)
	}

	fs := flag.NewFlagSet("fanwatch "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cmd.envFile, "env", "", "environment file to load (default .env if present)")
	fs.StringVar(&cmd.configFile, "config", "", "YAML configuration file (default $"+core.EnvConfigFile+" or "+core.DefaultConfigFile+")")
	if cmd.name == cmdHistory {
		fs.IntVar(&cmd.limit, "limit", 20, "number of recent attempts and alerts to list")
		fs.DurationVar(&cmd.since, "since", 24*time.Hour, "summary window")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return command{}, errHelp
		}
		return command{}, err
	}
	if fs.NArg() > 0 {
		return command{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if cmd.name == cmdHistory && cmd.limit <= 0 {
		return command{}, fmt.Errorf("-limit must be positive")
	}
	return cmd, nil
}

// runValidate runs the startup checks and exits.
func runValidate(cmd command, stdout, stderr io.Writer) int {
	cfg, logger, code := bootstrap(cmd, stderr)
	if code != core.ExitCodeSuccess {
		return code
	}
	defer logger.Sync()

	return runStartupValidation(cfg, logger, stdout)
}

// runReset performs one manual reset of the fan utility.
func runReset(cmd command, stdout, stderr io.Writer) int {
	cfg, logger, code := bootstrap(cmd, stderr)
	if code != core.ExitCodeSuccess {
		return code
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		for _, ce := range core.ConfigErrors(err) {
			fmt.Fprintf(stderr, "Error: %v\n", ce)
		}
		return core.ExitCodeConfig
	}
	if err := validation.CheckFileExists(cfg.FanTool.Executable); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", core.ErrFanToolMissing(cfg.FanTool.Executable))
		return core.ExitCodeConfig
	}

	ctx := context.Background()
	opts := []fancontrol.Option{
		fancontrol.WithStartupWaiter(fancontrol.FixedDelay{Delay: cfg.FanTool.StartupDelay}),
	}
	if journal := openJournal(ctx, cfg, logger); journal != nil {
		defer journal.Close(ctx)
		opts = append(opts, fancontrol.WithRecorder(journal))
	}

	watchdog := fancontrol.NewWatchdog(watchdogConfig(cfg), fancontrol.SystemProcessTable{}, logger, opts...)

	fmt.Fprintf(stdout, "Resetting %s (this takes about %v)...\n",
		cfg.FanTool.Executable, 2*cfg.FanTool.StartupDelay)
	if err := watchdog.Reset(ctx); err != nil {
		color.New(color.FgRed).Fprintf(stdout, "Reset failed: %v\n", err)
		return core.ExitCodeError
	}
	color.New(color.FgGreen).Fprintln(stdout, "Reset complete")
	return core.ExitCodeSuccess
}

// runHistory prints a summary of the recovery journal.
func runHistory(cmd command, stdout, stderr io.Writer) int {
	cfg, logger, code := bootstrap(cmd, stderr)
	if code != core.ExitCodeSuccess {
		return code
	}
	defer logger.Sync()

	return printJournal(cfg, cmd, logger, stdout, stderr)
}

func printJournal(cfg *core.Config, cmd command, logger *logging.Logger, stdout, stderr io.Writer) int {
	if !cfg.JournalEnabled() {
		fmt.Fprintln(stderr, "Recovery journal is disabled")
		return core.ExitCodeConfig
	}
	if _, err := os.Stat(cfg.JournalPath); err != nil {
		fmt.Fprintf(stderr, "No recovery journal at %s\n", cfg.JournalPath)
		return core.ExitCodeError
	}

	ctx := context.Background()
	journal, err := db.OpenJournal(ctx, cfg.JournalPath, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}
	defer journal.Close(ctx)

	summary, err := journal.Summarize(ctx, time.Now().Add(-cmd.since))
	if err != nil {
		logger.Error("Failed to summarize journal", zap.Error(err))
		return core.ExitCodeError
	}
	attempts, err := journal.RecentAttempts(ctx, cmd.limit)
	if err != nil {
		logger.Error("Failed to read recovery attempts", zap.Error(err))
		return core.ExitCodeError
	}
	alerts, err := journal.RecentAlerts(ctx, cmd.limit)
	if err != nil {
		logger.Error("Failed to read alerts", zap.Error(err))
		return core.ExitCodeError
	}

	writeHistory(stdout, cmd.since, summary, attempts, alerts)
	return core.ExitCodeSuccess
}

const historyTimeFormat = "2006-01-02 15:04:05"

func writeHistory(w io.Writer, since time.Duration, s db.Summary, attempts []db.AttemptRecord, alerts []db.AlertRecord) {
	heading := color.New(color.FgCyan, color.Bold)

	heading.Fprintf(w, "Last %v\n", since)
	fmt.Fprintf(w, "  %d recovery attempts (%d failed), %d alerts\n", s.Attempts, s.FailedAttempts, s.Alerts)
	for _, reason := range slices.Sorted(maps.Keys(s.ByReason)) {
		fmt.Fprintf(w, "  %-16s %d\n", reason, s.ByReason[reason])
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "Recent recovery attempts")
	if len(attempts) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  STARTED\tREASON\tADAPTER\tDURATION\tOUTCOME")
		for _, a := range attempts {
			outcome := a.Outcome
			if a.Outcome == db.OutcomeFailed {
				outcome = fmt.Sprintf("failed at %s: %s", a.FailedStep, a.Error)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%v\t%s\n",
				a.StartedAt.Local().Format(historyTimeFormat), a.Reason, orDash(a.Adapter),
				a.Duration.Round(100*time.Millisecond), outcome)
		}
		tw.Flush()
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "Recent alerts")
	if len(alerts) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  RAISED\tADAPTER\tRPM\tPCT\tTEMP")
	for _, a := range alerts {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%d\n",
			a.RaisedAt.Local().Format(historyTimeFormat), a.Adapter, a.FanSpeedRPM, a.FanSpeedPct, a.TempC)
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
