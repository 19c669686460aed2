package client

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/canonical/go-ddl/logging"
)

// LogFunc is a function that can be used for logging.
type LogFunc = logging.Func

// LogLevel defines the logging level.
type LogLevel = logging.Level

// Available logging levels.
const (
	LogNone  = logging.None
	LogDebug = logging.Debug
	LogInfo  = logging.Info
	LogWarn  = logging.Warn
	LogError = logging.Error
)

// DefaultLogFunc emits warnings and errors through the standard logger.
func DefaultLogFunc(l LogLevel, format string, a ...interface{}) {
	if l < LogWarn {
		return
	}
	log.Printf("["+l.String()+"]"+" ddl: "+format, a...)
}

// NewLogFunc returns a LogFunc writing messages at the given level or above
// to w, or to standard output if w is nil.
func NewLogFunc(level LogLevel, prefix string, w io.Writer) LogFunc {
	if w == nil {
		w = os.Stdout
	}
	logger := log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
	return func(l LogLevel, format string, args ...interface{}) {
		if l >= level {
			// prepend the log level to the message
			args = append([]interface{}{l.String()}, args...)
			format = "[%s] " + format
			logger.Printf(format, args...)
		}
	}
}

// NewLoggingWriter returns a writer forwarding to the standard logger.
func NewLoggingWriter() io.Writer {
	return loggingWriter{}
}

type loggingWriter struct{}

func (loggingWriter) Write(p []byte) (int, error) {
	log.Print(string(p))
	return len(p), nil
}

// NewLogLevel converts a level name to a LogLevel.
func NewLogLevel(name string) (LogLevel, error) {
	level, err := logging.ParseLevel(name)
	if err != nil {
		return LogNone, fmt.Errorf("log level %q: must be one of debug, info, warn or error", name)
	}
	return level, nil
}
