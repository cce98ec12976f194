// Package logger provides leveled logging for the notebook CLI and server.
// Messages go through a zerolog logger writing to stderr. Console output is
// used on terminals and JSON lines everywhere else, so the server's logs
// can be shipped as-is. Debug and info messages are shown only in verbose
// mode unless SetLevel lowers the threshold.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	level             = zerolog.WarnLevel
	format            = FormatAuto
	output  io.Writer = os.Stderr
	base              = build()
)

// build creates the zerolog logger from the current settings.
// Callers must hold mu, except during package initialisation.
func build() zerolog.Logger {
	w := output
	if format == FormatConsole || (format == FormatAuto && isTerminal(output)) {
		w = zerolog.ConsoleWriter{
			Out:        output,
			NoColor:    !isTerminal(output),
			TimeFormat: time.TimeOnly,
		}
	}

	lvl := level
	if verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level logged outside verbose mode.
// Accepts zerolog level names such as "debug", "info" or "warn".
func SetLevel(name string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	base = build()
	return nil
}

// SetFormat selects console or JSON output. FormatAuto picks console on
// terminals.
func SetFormat(f string) error {
	switch f {
	case FormatAuto, FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q", f)
	}
	mu.Lock()
	defer mu.Unlock()
	format = f
	base = build()
	return nil
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// L returns the underlying logger for structured fields.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// Debug logs a message in verbose mode only.
func Debug(format string, args ...any) {
	L().Debug().Msgf(format, args...)
}

// Section logs a pipeline stage header in verbose mode only.
func Section(name string) {
	L().Debug().Str("section", name).Msg("=== " + name + " ===")
}

// Info logs an informational message.
func Info(format string, args ...any) {
	L().Info().Msgf(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	L().Warn().Msgf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	L().Error().Msgf(format, args...)
}
