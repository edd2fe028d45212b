package logging

import (
	"os"

	"golang.org/x/term"
)

// NewCLILogger returns a stderr logger for a command-line tool, coloured
// when stderr is a terminal.
func NewCLILogger(verbosity int) *Logger {
	return NewTextLogger(os.Stderr, verbosity, term.IsTerminal(int(os.Stderr.Fd())))
}

// Verbosity maps -v / -vv style flags to a level.
func Verbosity(verbose, trace bool) int {
	switch {
	case trace:
		return LevelTrace
	case verbose:
		return LevelDebug
	default:
		return LevelInfo
	}
}
