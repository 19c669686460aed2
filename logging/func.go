package logging

import (
	"fmt"
	"log"
	"os"
	"testing"
)

// Func is a function that can be used for logging.
type Func func(Level, string, ...interface{})

// Test returns a logging function that forwards messages to the test logger.
func Test(t testing.TB) Func {
	return func(l Level, format string, a ...interface{}) {
		format = fmt.Sprintf("%s: %s", l.String(), format)
		t.Logf(format, a...)
	}
}

// Stdout returns a logging function that prints log messages on standard
// output.
func Stdout() Func {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	return func(l Level, format string, a ...interface{}) {
		format = fmt.Sprintf("%s: %s\n", l.String(), format)
		logger.Printf(format, a...)
	}
}

// Discard returns a logging function that drops everything.
func Discard() Func {
	return func(Level, string, ...interface{}) {}
}

// Prefixed wraps a logging function so that every message starts with the
// given prefix.
func Prefixed(log Func, prefix string) Func {
	return func(l Level, format string, a ...interface{}) {
		log(l, prefix+format, a...)
	}
}
