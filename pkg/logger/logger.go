package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. "production" (and "prod") yield JSON
// output at info level; anything else is the human-readable development
// config at debug level.
func New(environment string) (*zap.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "production", "prod":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	default:
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
}

// Must is New for main packages, panicking on a bad config.
func Must(environment string) *zap.Logger {
	l, err := New(environment)
	if err != nil {
		panic(err)
	}
	return l
}
