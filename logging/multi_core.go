package logging

import (
	"go.uber.org/zap/zapcore"
)

// NewMultiCore tees entries to a console writer and a file writer.
//
// The file always receives JSON. The console receives the coloured,
// human-readable encoding in development mode and JSON otherwise, so that a
// service host capturing stderr still gets parseable lines.
//
// Example:
//
//	var buf bytes.Buffer
//	core := NewMultiCore(zapcore.DebugLevel, zapcore.AddSync(os.Stderr), zapcore.AddSync(&buf), true)
//	logger := zap.New(core)
func NewMultiCore(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		fileWriter,
		level,
	)

	var consoleEncoder zapcore.Encoder
	if isDev {
		consoleEncoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, consoleWriter, level)

	return zapcore.NewTee(consoleCore, fileCore)
}
