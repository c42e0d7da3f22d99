// Package logging configures structured logging for the watchdog.
//
// Entries are written twice: a human-readable stream on stderr and a rotated
// JSON file on disk. Both share the level chosen at startup.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how NewLogger builds its cores.
type Options struct {
	// Level is the minimum level written to both outputs.
	Level zapcore.Level

	// Development switches the console stream to the coloured encoder.
	Development bool

	// FilePath is the rotated JSON log file. Its directory is created if needed.
	FilePath string

	// File overrides rotation settings. Zero fields fall back to defaults.
	File FileWriterConfig
}

// Logger wraps zap.Logger with the sugared variants used across the service.
//
// Example:
//
//	logger, err := NewLogger(Options{Level: InfoLevel, FilePath: "logs/fanwatch.log"})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	logger.Info("adapters discovered", zap.Int("count", 2))
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger

	isDevelopment bool
	logFilePath   string
}

// NewLogger creates a Logger writing to stderr and to a rotated file.
func NewLogger(opts Options) (*Logger, error) {
	if opts.FilePath == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	if dir := filepath.Dir(opts.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	fileWriter := NewFileWriterWithConfig(opts.FilePath, opts.File)
	core := NewMultiCore(opts.Level, zapcore.Lock(os.Stderr), fileWriter, opts.Development)

	l := NewFromCore(core)
	l.isDevelopment = opts.Development
	l.logFilePath = opts.FilePath
	return l, nil
}

// NewFromCore wraps an existing core. Tests use it with zaptest/observer.
func NewFromCore(core zapcore.Core) *Logger {
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{zap: z, sugar: z.Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	z := zap.NewNop()
	return &Logger{zap: z, sugar: z.Sugar()}
}

// Sync flushes buffered entries. Call it before exit.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

// Debug logs at DebugLevel.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

// Info logs at InfoLevel.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Warn logs at WarnLevel.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// Error logs at ErrorLevel.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// Debugw logs at DebugLevel with loosely typed key-value pairs.
//
// Example:
//
//	logger.Debugw("process matched", "pid", 4120, "cmdline", cmd)
func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Infow logs at InfoLevel with key-value pairs.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warnw logs at WarnLevel with key-value pairs.
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Errorw logs at ErrorLevel with key-value pairs.
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Infof logs a formatted message at InfoLevel.
func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

// Warnf logs a formatted message at WarnLevel.
func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

// With returns a child logger that adds fields to every entry.
//
// Example:
//
//	cycleLogger := logger.With(CycleField(id))
//	cycleLogger.Info("poll started")
func (l *Logger) With(fields ...zap.Field) *Logger {
	z := l.zap.With(fields...)
	return &Logger{
		zap:           z,
		sugar:         z.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Named adds a sub-logger name such as "watchdog" or "poller".
func (l *Logger) Named(name string) *Logger {
	z := l.zap.Named(name)
	return &Logger{
		zap:           z,
		sugar:         z.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Zap returns the underlying zap.Logger.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// IsDevelopment reports whether the console uses the coloured encoder.
func (l *Logger) IsDevelopment() bool {
	return l.isDevelopment
}

// LogFilePath returns the path of the rotated log file.
func (l *Logger) LogFilePath() string {
	return l.logFilePath
}
