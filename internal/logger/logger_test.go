package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
}

func TestLog_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	l := New()
	l.SetLevel(LogLevelWarn)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn")
	l.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "shown error")
}

func TestLog_WithModuleAndError(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	l := New().WithModule("proxy").WithError(errors.New("dial failed"))
	l.Error("upstream unreachable")

	out := buf.String()
	assert.Contains(t, out, "proxy")
	assert.Contains(t, out, "upstream unreachable: dial failed")
}
