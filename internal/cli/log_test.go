package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("pass done") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("placed root") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("placed root") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("cycle broken") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			assert.Equal(t, tt.wantLog, buf.Len() > 0)
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	time.Sleep(5 * time.Millisecond)
	prog.done("Read %d triples", 42)
	assert.Contains(t, buf.String(), "Read 42 triples")
	assert.Contains(t, buf.String(), "elapsed=")

	before := prog.start
	prog.restart()
	assert.True(t, prog.start.After(before))
}

func TestLoggerFromContext(t *testing.T) {
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	got := loggerFromContext(withLogger(context.Background(), custom))
	require.Same(t, custom, got)

	got.Info("labeled")
	assert.NotZero(t, buf.Len())
}
