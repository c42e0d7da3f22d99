package logging

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults. The watchdog logs one line per adapter every two
// seconds, so files are kept small and rotated often.
const (
	DefaultMaxSizeMB  = 20
	DefaultMaxBackups = 10
	DefaultMaxAgeDays = 14
	DefaultCompress   = true
)

// FileWriterConfig holds rotation settings. Zero values use the defaults.
type FileWriterConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// DisableCompress keeps rotated files as plain text.
	DisableCompress bool

	// LocalTime names backups using local time instead of UTC.
	LocalTime bool
}

// DefaultFileWriterConfig returns the default rotation settings.
func DefaultFileWriterConfig() FileWriterConfig {
	return FileWriterConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
	}
}

// NewFileWriter returns a rotating WriteSyncer with default settings.
func NewFileWriter(path string) zapcore.WriteSyncer {
	return NewFileWriterWithConfig(path, DefaultFileWriterConfig())
}

// NewFileWriterWithConfig returns a rotating WriteSyncer backed by lumberjack.
func NewFileWriterWithConfig(path string, config FileWriterConfig) zapcore.WriteSyncer {
	cfg := applyFileWriterDefaults(config)

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   !cfg.DisableCompress,
		LocalTime:  cfg.LocalTime,
	})
}

func applyFileWriterDefaults(config FileWriterConfig) FileWriterConfig {
	result := config
	if result.MaxSizeMB <= 0 {
		result.MaxSizeMB = DefaultMaxSizeMB
	}
	if result.MaxBackups <= 0 {
		result.MaxBackups = DefaultMaxBackups
	}
	if result.MaxAgeDays <= 0 {
		result.MaxAgeDays = DefaultMaxAgeDays
	}
	return result
}
