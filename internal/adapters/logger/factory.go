package logger

import (
	"os"
	"strings"

	"stockPredictor/internal/ports"
)

// Format selects the log output encoding.
type Format string

const (
	FormatText    Format = "text"    // StdLogger, the default
	FormatJSON    Format = "json"    // zerolog JSON lines
	FormatConsole Format = "console" // zerolog pretty console output
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON
	case FormatConsole:
		return FormatConsole
	default:
		return FormatText
	}
}

// New builds the logger for the given format and level, writing to stderr.
func New(format Format, level LogLevel) ports.Logger {
	switch format {
	case FormatJSON:
		return NewZeroLogger(os.Stderr, level, false)
	case FormatConsole:
		return NewZeroLogger(os.Stderr, level, true)
	default:
		return NewStdLogger(level)
	}
}
