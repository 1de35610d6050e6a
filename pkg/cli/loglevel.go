package cli

import (
	"fmt"
	"log/slog"
)

// ParseLevel parses the "debug"/"info"/"warn"/"error" strings used by
// pkg/config.LoggingConfig into an slog.Level. Empty defaults to info.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
