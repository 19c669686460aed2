package logging

import (
	"fmt"
	"strings"
)

// Level defines the logging level.
type Level int

// Available logging levels.
const (
	None Level = iota
	Debug
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name, in any case, to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "none":
		return None, nil
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return None, fmt.Errorf("invalid log level %q", name)
}

// Enabled wraps a logging function so that only messages at the given level
// or above are emitted.
func Enabled(log Func, level Level) Func {
	return func(l Level, format string, a ...interface{}) {
		if l >= level {
			log(l, format, a...)
		}
	}
}
