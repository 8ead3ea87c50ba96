package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup returns a configured slog.Logger and installs it as the
// process default.
func Setup(level, format, env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: env == "dev",
		Level:     parseLevel(level),
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", "blog", "env", env)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
