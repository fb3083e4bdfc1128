package session

import (
	"io"
	"log/slog"
	"os"
)

// DebugEnv enables debug logging when set to any non-empty value.
const DebugEnv = "MATHCORE_DEBUG"

// NewLogger returns a text logger without time or level keys. Debug output
// is enabled by debug or by DebugEnv. Otherwise only errors are logged,
// since warnings already reach the user through command output.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	logLevel := slog.LevelError
	if debug || os.Getenv(DebugEnv) != "" {
		logLevel = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
