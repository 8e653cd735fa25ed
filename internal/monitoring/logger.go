package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with engine-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger at the given level (debug, info, warn,
// error; anything else falls back to info).
func NewLogger(level string) *Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details.
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// RunLogger logs scoring run outcomes.
func (l *Logger) RunLogger(runID, teamID, period string, rosterSize, incomplete int, duration time.Duration) {
	l.Info("Scoring Run Completed",
		"run_id", runID,
		"team_id", teamID,
		"period", period,
		"roster_size", rosterSize,
		"incomplete_members", incomplete,
		"duration_ms", duration.Milliseconds(),
	)
}
