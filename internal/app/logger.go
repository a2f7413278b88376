package app

import (
	"io"
	"log/slog"
)

// newLogger builds the App's isolated logger from its validated
// configuration. The global slog default is never touched, so concurrent
// App instances (the integration harness runs several) cannot clobber each
// other's handlers.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}

// parseLevel maps the CLI level names onto slog levels. The CLI has already
// validated the name; anything else falls back to info.
func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
