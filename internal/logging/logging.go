// Package logging configures the structured logger used by every
// instance.
//
// Verbosity follows the historical scale: -1 silences everything but
// errors (--quiet), 0 prints warnings, 1 is informational and 2 is
// full debug output.  Color is enabled only when the output stream is
// a terminal AND the color option is set.
package logging

import (
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// EnvVerbose overrides the default pre-configuration verbosity.
const EnvVerbose = "VLC_VERBOSE"

// Level maps a verbosity value (-1..2) to a zerolog level.  Values
// outside the range clamp to the nearest end: fatal diagnostics must
// always reach the user, so -1 keeps errors visible.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= -1:
		return zerolog.ErrorLevel
	case verbosity == 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// New builds a console logger writing to w at the given verbosity.
func New(w io.Writer, verbosity int, color bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: "15:04:05.000",
	}
	return zerolog.New(out).Level(Level(verbosity)).With().Timestamp().Logger()
}

// VerbosityFromEnv reads the verbosity override from the environment.
// The bool distinguishes an explicit value from an unset or unparsable
// variable, so an explicit -1 is not mistaken for the pre-configuration
// default and later overwritten by the resolved configuration.
func VerbosityFromEnv() (int, bool) {
	raw := os.Getenv(EnvVerbose)
	if raw == "" {
		return -1, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1, false
	}
	return v, true
}

// IsTerminal reports whether f is attached to a terminal.  Used to
// decide color-output eligibility for stderr.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
