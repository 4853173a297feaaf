package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the global structured logger. Diagnostics go here; user-facing
// progress output stays on stdout in the CLI layer.
var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Setup configures the logger based on verbosity.
func Setup(verbose bool, w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func Debug(msg string, args ...any) { Logger.Debug(msg, args...) }

func Info(msg string, args ...any) { Logger.Info(msg, args...) }

func Warn(msg string, args ...any) { Logger.Warn(msg, args...) }

func Error(msg string, args ...any) { Logger.Error(msg, args...) }
