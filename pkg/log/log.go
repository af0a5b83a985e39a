// Package log builds leveled loggers on top of the standard library's slog package.
//
// Loggers write JSON (or text when the format is "text") and are constructed
// explicitly with New; nothing in this package keeps mutable global state, so
// each run decides its own level and destination and hands the logger to the
// components that need it.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log level constants matching slog and environment variable values.
const (
	levelDebugStr = "DEBUG"
	levelInfoStr  = "INFO"
	levelWarnStr  = "WARN"
	levelErrorStr = "ERROR"
)

// Output formats accepted by Options.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// FormatEnvVar selects the default output format when Options.Format is empty.
const FormatEnvVar = "LOG_FORMAT"

// ErrInvalidLogLevel indicates an invalid log level string was provided.
var ErrInvalidLogLevel = fmt.Errorf("invalid log level")

// Level is a log level type compatible with slog.Level.
type Level int8

// Log level definitions.
const (
	// LevelDebug defines the debug log level.
	LevelDebug Level = Level(slog.LevelDebug)
	// LevelInfo defines the info log level.
	LevelInfo Level = Level(slog.LevelInfo)
	// LevelWarn defines the warn log level.
	LevelWarn Level = Level(slog.LevelWarn)
	// LevelError defines the error log level.
	LevelError Level = Level(slog.LevelError)
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return levelDebugStr
	case LevelInfo:
		return levelInfoStr
	case LevelWarn:
		return levelWarnStr
	case LevelError:
		return levelErrorStr
	default:
		return "UNKNOWN"
	}
}

// Slog converts the level to its slog equivalent.
func (l Level) Slog() slog.Level {
	return slog.Level(l)
}

// ParseLevel parses a string and returns the corresponding Level.
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(levelStr) {
	case levelDebugStr:
		return LevelDebug, nil
	case levelInfoStr:
		return LevelInfo, nil
	case levelWarnStr, "WARNING": // Accept both forms
		return LevelWarn, nil
	case levelErrorStr:
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLogLevel, levelStr)
	}
}

// Options configures a logger built by New.
type Options struct {
	// Level is the minimum level written.
	Level Level
	// Format is "json" or "text". Empty means the LOG_FORMAT environment
	// variable, falling back to JSON.
	Format string
	// IncludeTime keeps the time attribute in JSON output. Text output always
	// carries it.
	IncludeTime bool
}

// New creates a logger writing to w. A nil writer means os.Stderr.
func New(w io.Writer, opts Options) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = strings.ToLower(os.Getenv(FormatEnvVar))
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level.Slog()}

	if format == FormatText {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}

	if !opts.IncludeTime {
		handlerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

// ForRun picks the level for a single invocation: debug wins, then the
// requested level string, then LevelWarn. An unparsable level string is
// reported back so the caller can warn about it.
func ForRun(debug bool, levelStr string) (Level, error) {
	if debug {
		return LevelDebug, nil
	}
	if levelStr == "" {
		return LevelWarn, nil
	}
	level, err := ParseLevel(levelStr)
	if err != nil {
		return LevelWarn, err
	}
	return level, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
