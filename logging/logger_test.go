package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewAcceptsKnownFormats(t *testing.T) {
	for _, format := range []string{"", "console", "json"} {
		l, err := New(Config{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestPrintfLoggerWritesDebugEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewPrintfLogger(zap.New(core))
	p.Printf("ran %s with %d args", "dart", 2)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "ran dart with 2 args", entries[0].Message)
}

func TestPrintfLoggerNilIsSafe(t *testing.T) {
	NewPrintfLogger(nil).Printf("nothing %d", 1)
}
