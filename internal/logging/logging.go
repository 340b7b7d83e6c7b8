// Package logging configures the zerolog logger shared by the bridge.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dkoosis/zephyr-bridge/internal/console"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to w at level. With FormatAuto, a terminal gets
// human-readable output and anything else gets JSON lines.
func New(w io.Writer, level, format string, noColor bool) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	switch strings.ToLower(format) {
	case "", FormatAuto:
		if console.IsTerminal(w) {
			w = consoleWriter(w, noColor)
		}
	case FormatConsole:
		w = consoleWriter(w, noColor || !console.IsTerminal(w))
	case FormatJSON:
	default:
		return zerolog.Nop(), errors.Errorf("unknown log format %q (expected auto, console, json)", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseLevel accepts debug, info, warn and error. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, errors.Errorf("unknown log level %q", level)
	}
}

func consoleWriter(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor || os.Getenv("NO_COLOR") != "",
		TimeFormat: time.Kitchen,
	}
}
