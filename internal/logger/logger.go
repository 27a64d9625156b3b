// Package logger constructs the zap loggers shared by the engine and its
// HTTP shell.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a logger for the given runtime environment. "prod" emits
// structured JSON; "local", "dev" and "docker" use the human-readable console
// encoder. A non-empty level ("debug", "info", "warn", "error") overrides the
// encoder's default.
func NewLogger(env string, level ...string) (*zap.Logger, error) {
	cfg, err := configFor(env)
	if err != nil {
		return nil, err
	}

	if len(level) > 0 && level[0] != "" {
		parsed, err := zapcore.ParseLevel(level[0])
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level[0], err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build %s logger: %w", env, err)
	}
	return l, nil
}

func configFor(env string) (zap.Config, error) {
	switch env {
	case "prod":
		return zap.NewProductionConfig(), nil
	case "local", "dev", "docker":
		return zap.NewDevelopmentConfig(), nil
	default:
		return zap.Config{}, fmt.Errorf("no logger profile for environment %q", env)
	}
}
