package core

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Environment variable names. Every setting can be overridden this way; the
// environment wins over the YAML file, which wins over the defaults.
const (
	EnvConfigFile     = "FANWATCH_CONFIG"
	EnvPollInterval   = "FANWATCH_POLL_INTERVAL"
	EnvEnumMode       = "FANWATCH_ENUM_MODE"
	EnvFanToolExe     = "FANWATCH_FAN_TOOL_EXE"
	EnvFanToolMatch   = "FANWATCH_FAN_TOOL_MATCH"
	EnvFanToolConfig  = "FANWATCH_FAN_TOOL_CONFIG"
	EnvFanModeKey     = "FANWATCH_FAN_MODE_KEY"
	EnvStartupDelay   = "FANWATCH_STARTUP_DELAY"
	EnvJournalPath    = "FANWATCH_JOURNAL_PATH"
	EnvJournalKeep    = "FANWATCH_JOURNAL_RETENTION"
	EnvLogFile        = "FANWATCH_LOG_FILE"
	EnvLogLevel       = "FANWATCH_LOG_LEVEL"
	EnvDevMode        = "FANWATCH_DEV_MODE"
	EnvAlertFrequency = "FANWATCH_ALERT_FREQ_HZ"
	EnvAlertDuration  = "FANWATCH_ALERT_DURATION"
)

// DefaultConfigFile is read when FANWATCH_CONFIG is unset and the file exists.
const DefaultConfigFile = "fanwatch.yaml"

// Default locations of ASRock Tweak Tool.
const (
	DefaultFanToolExe    = `C:\Program Files (x86)\ASRock Utility\ASRock Tweak Tool\ASRockTweakTool.exe`
	DefaultFanToolConfig = `C:\Program Files (x86)\ASRock Utility\ASRock Tweak Tool\Config.ini`
)

// Config holds every runtime setting.
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`

	// EnumMode is "connected" or "all".
	EnumMode string `yaml:"enum_mode"`

	FanTool FanToolConfig `yaml:"fan_tool"`

	// JournalPath is the SQLite recovery journal. Empty or "off" disables it.
	JournalPath string `yaml:"journal_path"`

	// JournalRetention is how long journal rows are kept. Zero keeps them forever.
	JournalRetention time.Duration `yaml:"journal_retention"`

	Log   LogConfig   `yaml:"log"`
	Alert AlertConfig `yaml:"alert"`

	DevMode bool `yaml:"dev_mode"`
}

// FanToolConfig locates the fan-control utility.
type FanToolConfig struct {
	Executable    string        `yaml:"executable"`
	MatchFragment string        `yaml:"match_fragment"`
	ConfigPath    string        `yaml:"config_path"`
	FanModeKey    string        `yaml:"fan_mode_key"`
	StartupDelay  time.Duration `yaml:"startup_delay"`
}

// LogConfig controls the log file and level.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// AlertConfig controls the audible alert.
type AlertConfig struct {
	FrequencyHz int           `yaml:"frequency_hz"`
	Duration    time.Duration `yaml:"duration"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 2 * time.Second,
		EnumMode:     "connected",
		FanTool: FanToolConfig{
			Executable:   DefaultFanToolExe,
			ConfigPath:   DefaultFanToolConfig,
			FanModeKey:   "FanMode",
			StartupDelay: 10 * time.Second,
		},
		JournalPath:      "data/fanwatch.db",
		JournalRetention: 90 * 24 * time.Hour,
		Log: LogConfig{
			File:  "logs/fanwatch.log",
			Level: "info",
		},
		Alert: AlertConfig{
			FrequencyHz: 880,
			Duration:    750 * time.Millisecond,
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file and the
// environment. The file named by FANWATCH_CONFIG must exist; the default
// file is optional.
func LoadConfig() (*Config, error) {
	path := os.Getenv(EnvConfigFile)
	required := path != ""
	if !required {
		path = DefaultConfigFile
	}

	cfg := DefaultConfig()
	if err := cfg.mergeFile(path, required); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadConfigFile reads path over the defaults and applies the environment.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.mergeFile(path, true); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &ConfigError{
			Code:    ErrCodeConfigFileUnreadable,
			Message: fmt.Sprintf("Cannot read configuration file %s: %v", path, err),
			Action:  fmt.Sprintf("Create %s or unset %s", path, EnvConfigFile),
		}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigError{
			Code:    ErrCodeConfigFileInvalid,
			Message: fmt.Sprintf("Invalid YAML in %s: %v", path, err),
			Action:  "Fix the syntax; durations use Go notation such as 2s or 500ms",
		}
	}
	return nil
}

// ApplyEnv overrides fields whose environment variable is set.
func (c *Config) ApplyEnv() {
	c.PollInterval = ParseDurationEnv(EnvPollInterval, c.PollInterval)
	c.EnumMode = GetEnvOrDefault(EnvEnumMode, c.EnumMode)

	c.FanTool.Executable = GetEnvOrDefault(EnvFanToolExe, c.FanTool.Executable)
	c.FanTool.MatchFragment = GetEnvOrDefault(EnvFanToolMatch, c.FanTool.MatchFragment)
	c.FanTool.ConfigPath = GetEnvOrDefault(EnvFanToolConfig, c.FanTool.ConfigPath)
	c.FanTool.FanModeKey = GetEnvOrDefault(EnvFanModeKey, c.FanTool.FanModeKey)
	c.FanTool.StartupDelay = ParseDurationEnv(EnvStartupDelay, c.FanTool.StartupDelay)

	c.JournalPath = GetEnvOrDefault(EnvJournalPath, c.JournalPath)
	c.JournalRetention = ParseDurationEnv(EnvJournalKeep, c.JournalRetention)
	c.Log.File = GetEnvOrDefault(EnvLogFile, c.Log.File)
	c.Log.Level = GetEnvOrDefault(EnvLogLevel, c.Log.Level)
	c.DevMode = ParseBoolEnv(EnvDevMode, c.DevMode)

	c.Alert.FrequencyHz = ParseIntEnv(EnvAlertFrequency, c.Alert.FrequencyHz)
	c.Alert.Duration = ParseDurationEnv(EnvAlertDuration, c.Alert.Duration)
}

// Validate checks every field and returns all problems at once. Use
// ConfigErrors to list them.
func (c *Config) Validate() error {
	checks := []struct {
		ok  bool
		err *ConfigError
	}{
		{c.PollInterval > 0, ErrInvalidValue(EnvPollInterval, c.PollInterval.String(), "must be a positive duration")},
		{c.EnumMode == "connected" || c.EnumMode == "all", ErrInvalidValue(EnvEnumMode, c.EnumMode, `must be "connected" or "all"`)},
		{c.FanTool.Executable != "", ErrMissingConfig(EnvFanToolExe)},
		{c.FanTool.ConfigPath != "", ErrMissingConfig(EnvFanToolConfig)},
		{c.FanTool.FanModeKey != "", ErrMissingConfig(EnvFanModeKey)},
		{c.FanTool.StartupDelay >= 0, ErrInvalidValue(EnvStartupDelay, c.FanTool.StartupDelay.String(), "must not be negative")},
		{c.JournalRetention >= 0, ErrInvalidValue(EnvJournalKeep, c.JournalRetention.String(), "must not be negative")},
		{c.Log.File != "", ErrMissingConfig(EnvLogFile)},
		{c.Alert.FrequencyHz >= 37 && c.Alert.FrequencyHz <= 32767, ErrInvalidValue(EnvAlertFrequency, fmt.Sprint(c.Alert.FrequencyHz), "must be between 37 and 32767")},
		{c.Alert.Duration > 0, ErrInvalidValue(EnvAlertDuration, c.Alert.Duration.String(), "must be a positive duration")},
	}

	var errs error
	for _, check := range checks {
		if !check.ok {
			errs = multierr.Append(errs, check.err)
		}
	}
	return errs
}

// EffectiveMatchFragment returns the process-match prefix, defaulting to the
// executable path.
func (f FanToolConfig) EffectiveMatchFragment() string {
	if f.MatchFragment != "" {
		return f.MatchFragment
	}
	return f.Executable
}

// JournalEnabled reports whether recovery attempts and alerts are journaled.
func (c *Config) JournalEnabled() bool {
	return c.JournalPath != "" && c.JournalPath != "off"
}
