// Package cli holds setup shared by the command binaries.
package cli

import (
	"log"
	"log/slog"
	"os"
)

// NewLogger builds the process logger: text on a terminal, JSON when the
// output is piped or captured.
func NewLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

// SetupLogging installs the process logger and returns it.
func SetupLogging(verbose bool) *slog.Logger {
	logger, level := NewLogger(verbose)
	slog.SetDefault(logger)
	// slog.SetLogLoggerLevel requires go 1.22; route the log-package bridge
	// through the handler at the chosen level the same way it would.
	log.SetOutput(slog.NewLogLogger(logger.Handler(), level.Level()).Writer())
	return logger
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
