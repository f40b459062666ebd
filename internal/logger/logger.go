// Package logger provides structured logging setup for ledgerd.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/buildloop/ledger/internal/config"
)

// New builds the process logger: JSON to stdout, a "service" attribute
// on every record, and source locations when running at debug level.
func New(cfg config.Logging) *slog.Logger {
	level := parseLevel(cfg.Level)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})

	return slog.New(handler).With("service", cfg.Service)
}

// parseLevel maps a config string onto a slog level. Unknown values
// fall back to info rather than failing startup.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
