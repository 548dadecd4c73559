// Package logger owns the process-wide structured logger. Output is discarded
// until Init is called, so library packages can log unconditionally.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// L is the global logger instance. It discards everything until Init runs.
var L = zerolog.Nop()

// EnvLevel names the environment variable consulted when Options.Level is empty.
const EnvLevel = "KCORE_LOG_LEVEL"

// Options configures the logger initialization.
type Options struct {
	Enabled bool      // If false, all logging is discarded
	Level   string    // zerolog level name ("debug", "info", ...). Default: $KCORE_LOG_LEVEL, then info
	Output  io.Writer // Destination. Default: os.Stderr
	JSON    bool      // Emit JSON lines instead of the console format
}

// Init configures logging. Call from main() before any log calls.
func Init(opts Options) error {
	if !opts.Enabled {
		L = zerolog.Nop()
		return nil
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	levelName := opts.Level
	if levelName == "" {
		levelName = os.Getenv(EnvLevel)
	}
	level := zerolog.InfoLevel
	if levelName != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(levelName))
		if err != nil {
			return err
		}
		level = parsed
	}

	L = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}

// Component returns a child logger tagged with the subsystem name.
func Component(name string) zerolog.Logger {
	return L.With().Str("component", name).Logger()
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug().Fields(args).Msg(msg) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info().Fields(args).Msg(msg) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn().Fields(args).Msg(msg) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error().Fields(args).Msg(msg) }
