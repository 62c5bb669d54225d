package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the global diagnostics logger. It defaults to a no-op logger so
// packages can log before Init runs (and in tests that never call it).
var L = zap.NewNop().Sugar()

// Init configures the global logger. Call once at startup, after config
// has been loaded.
func Init(levelStr string) {
	level := zapcore.InfoLevel
	switch strings.ToLower(levelStr) {
	case "debug":
		level = zapcore.DebugLevel
	case "", "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		zap.S().Warnw("invalid log level, defaulting to info", "configured", levelStr)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	L = logger.Sugar()
	zap.ReplaceGlobals(logger)
}
