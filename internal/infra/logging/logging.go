package logging

import (
	"io"
	"log/slog"
	"os"
)

// SetupJSON installs a JSON slog logger writing to stdout as the default
// logger. Every record carries the service name.
func SetupJSON(level slog.Level, service string) {
	slog.SetDefault(NewJSON(os.Stdout, level, service))
}

func NewJSON(w io.Writer, level slog.Level, service string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	return slog.New(h).With(slog.String("service", service))
}
