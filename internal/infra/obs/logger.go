package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger returns a colored tint logger for dev and local runs and a JSON
// logger everywhere else.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env, slog.LevelInfo)
}

func newLogger(w io.Writer, env string, level slog.Level) *slog.Logger {
	switch strings.ToLower(env) {
	case "dev", "local":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}))
}

// Discard is a logger for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
