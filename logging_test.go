package lottietex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLogger(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewWriterLogger(&out, &errOut, "bridge", false)

	logger.Debugf("hidden %d", 1)
	logger.Infof("loaded %s", "a.json")
	logger.Warnf("slow")
	logger.Errorf("failed")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[bridge] INFO: loaded a.json")
	assert.Contains(t, errOut.String(), "[bridge] WARN: slow")
	assert.Contains(t, errOut.String(), "[bridge] ERROR: failed")

	logger.SetDebug(true)
	logger.Debugf("shown %d", 2)
	assert.Contains(t, out.String(), "DEBUG: shown 2")
}

func TestLoader_RejectedSetterIsLogged(t *testing.T) {
	var out, errOut bytes.Buffer
	l, err := NewLoader(newFakeEngine(), WithLogger(NewWriterLogger(&out, &errOut, "", false)))
	assert.NoError(t, err)

	l.SetFrameThrottle(-2)
	assert.Contains(t, errOut.String(), "WARN: lottietex: invalid config: rejected frameThrottle -2, keeping 1")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, "": LevelInfo, "WARN": LevelWarn, "warning": LevelWarn, "error": LevelError} {
		got, err := ParseLevel(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestWriterLogger_Level(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewWriterLogger(&out, &errOut, "", true)
	logger.SetLevel(LevelWarn)

	logger.Infof("dropped")
	logger.Warnf("kept")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "WARN: kept")
	assert.False(t, logger.DebugEnabled())
}

func TestLoggingModule_Level(t *testing.T) {
	app := NewApp().UseModules(LoggingModule{Level: "error"})
	logger, ok := Resource[DefaultLogger](app)
	assert.True(t, ok)
	assert.Equal(t, LevelError, logger.Level())

	assert.Panics(t, func() { NewApp().UseModules(LoggingModule{Level: "loud"}) })
}
