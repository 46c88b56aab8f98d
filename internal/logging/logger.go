package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. Development mode uses zap's
// human-friendly console output; otherwise JSON at the given level.
func NewLogger(development bool, level string) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// NewBootstrapLogger builds a logger from APP_ENV and LOG_LEVEL, for use
// until the configuration is loaded.
func NewBootstrapLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return NewLogger(env == "" || env == "development", level)
}
