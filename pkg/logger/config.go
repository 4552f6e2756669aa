package logger

import (
	"log/slog"
	"strings"
)

// Config is the environment-driven logger setup.
type Config struct {
	Service string `env:"APP_NAME" envDefault:"sessionkit"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Level   string `env:"LOG_LEVEL"`  // overrides the environment preset when set
	Format  string `env:"LOG_FORMAT"` // "json" or "text"; overrides the preset when set
}

// NewFromConfig builds a logger from cfg, applying the environment preset first
// and then any explicit level or format. Extra options are applied last.
func NewFromConfig(cfg Config, opts ...Option) *slog.Logger {
	all := []Option{WithEnvironment(cfg.Env, cfg.Service)}
	if cfg.Level != "" {
		all = append(all, WithLevel(ParseLevel(cfg.Level)))
	}
	if cfg.Format != "" {
		all = append(all, WithFormat(Format(strings.ToLower(cfg.Format))))
	}
	return New(append(all, opts...)...)
}

// ParseLevel understands debug, info, warn(ing) and error. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
