// Package logging provides the structured console logger used by the CLI.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// TimeFormat is the timestamp layout of console log lines.
const TimeFormat = "15:04:05"

// New creates a console logger writing to w. Debug messages are only emitted when verbose is set.
// Colour is enabled only when w is a terminal.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: TimeFormat,
		NoColor:    !isTerminal(w),
	}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewDefaultCLILogger creates a logger on stderr. Stdout is reserved for the resolved version.
func NewDefaultCLILogger(verbose bool) zerolog.Logger {
	return New(os.Stderr, verbose)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
