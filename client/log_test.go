package client

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type writeCheck bool

func (w *writeCheck) Write(in []byte) (int, error) {
	*w = true
	return len(in), nil
}

func TestNewLogFunc(t *testing.T) {
	// first with nil to exercise the stdout assignment
	logger := NewLogFunc(LogError, "", nil)

	// now verify levels are respected
	w := new(writeCheck)
	logger = NewLogFunc(LogError, "", w)
	logger(LogDebug, "hello")
	if *w {
		t.Fatal("log level ignored")
	}
	logger(LogError, "hello")
	if !*w {
		t.Fatal("log level did not print")
	}
}

func TestLoggingWriter(t *testing.T) {
	w := new(writeCheck)
	log.SetOutput(w)
	defer log.SetOutput(os.Stderr)
	logger := NewLogFunc(LogError, "", NewLoggingWriter())
	logger(LogDebug, "hello")
	if *w {
		t.Fatal("log level ignored")
	}
	logger(LogError, "hello")
	if !*w {
		t.Fatal("log level did not print")
	}
}

func TestDefaultLogFunc(t *testing.T) {
	w := new(writeCheck)
	log.SetOutput(w)
	defer log.SetOutput(os.Stderr)

	DefaultLogFunc(LogInfo, "quiet")
	assert.False(t, bool(*w))

	DefaultLogFunc(LogWarn, "loud")
	assert.True(t, bool(*w))
}

func TestNewLogLevel(t *testing.T) {
	l, err := NewLogLevel("debug")
	assert.NoError(t, err)
	assert.Equal(t, l, LogDebug)

	l, err = NewLogLevel("info")
	assert.NoError(t, err)
	assert.Equal(t, l, LogInfo)

	l, err = NewLogLevel("warn")
	assert.NoError(t, err)
	assert.Equal(t, l, LogWarn)

	l, err = NewLogLevel("error")
	assert.NoError(t, err)
	assert.Equal(t, l, LogError)

	_, err = NewLogLevel("invalid")
	assert.EqualError(t, err, `log level "invalid": must be one of debug, info, warn or error`)
}
