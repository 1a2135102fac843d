// Package logging builds the process logger: INFO and WARN go to stdout,
// ERROR and above to stderr, and every enabled level optionally also to a
// JSON log file.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger at the given level. When path is non-empty, entries
// are also appended to that file. The returned cleanup flushes the logger
// and closes the file.
func New(level, path string) (*zap.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}

	var file zapcore.WriteSyncer
	closeFile := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		closeFile = func() { f.Close() }
	}

	logger := zap.New(newCore(lvl, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr), file))
	cleanup := func() {
		_ = logger.Sync()
		closeFile()
	}
	return logger, cleanup, nil
}

// newCore routes entries at or above minimum by severity. file may be nil.
func newCore(minimum zapcore.Level, stdout, stderr, file zapcore.WriteSyncer) zapcore.Core {
	consoleCfg := zap.NewProductionEncoderConfig()
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	console := zapcore.NewConsoleEncoder(consoleCfg)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minimum && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minimum && l >= zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(console, stdout, low),
		zapcore.NewCore(console, stderr, high),
	}
	if file != nil {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), file, minimum))
	}
	return zapcore.NewTee(cores...)
}
