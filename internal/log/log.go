// Package log provides the application-wide structured logger.
// Handlers and workers log through the leveled key/value helpers so
// call sites stay decoupled from the logging backend.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop().Sugar()

// Configure sets up the global logger. Level is one of trace, debug,
// info, warn, error (trace maps to debug). Format is console or json.
func Configure(level, format string) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		if level == "trace" {
			lvl = zapcore.DebugLevel
		} else {
			lvl = zapcore.InfoLevel
		}
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return
	}
	logger = l.Sugar()
}

// Debug logs a debug message with key/value pairs
func Debug(msg string, keysAndValues ...interface{}) {
	logger.Debugw(msg, keysAndValues...)
}

// Info logs an informational message with key/value pairs
func Info(msg string, keysAndValues ...interface{}) {
	logger.Infow(msg, keysAndValues...)
}

// Warn logs a warning message with key/value pairs
func Warn(msg string, keysAndValues ...interface{}) {
	logger.Warnw(msg, keysAndValues...)
}

// Error logs an error message with key/value pairs
func Error(msg string, keysAndValues ...interface{}) {
	logger.Errorw(msg, keysAndValues...)
}
