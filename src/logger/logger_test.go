package logger

import (
	"testing"

	"market-backfill/src/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	l := &Logger{name: "test", logger: zap.New(core).Named("test"), exit: func(int) {}}
	return l, logs
}

func TestLogger_FormatsAndNames(t *testing.T) {
	l, logs := newObserved(zapcore.DebugLevel)

	l.Info("inserted %d rows for %s", 12, "AAPL")
	l.Named("backfill").Warning("skipped %s", "gap")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "inserted 12 rows for AAPL", entries[0].Message)
		assert.Equal(t, "test", entries[0].LoggerName)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "test.backfill", entries[1].LoggerName)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, logs := newObserved(zapcore.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Error("shown")

	assert.Equal(t, 1, logs.Len())
}

func TestLogger_CriticalCallsExit(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	code := 0
	l := &Logger{name: "test", logger: zap.New(core), exit: func(c int) { code = c }}

	l.Critical("store unavailable")

	assert.Equal(t, 1, code)
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  zapcore.Level
	}{
		{name: "debug", input: "DEBUG", want: zapcore.DebugLevel},
		{name: "warning alias", input: "warning", want: zapcore.WarnLevel},
		{name: "error", input: "error", want: zapcore.ErrorLevel},
		{name: "unknown defaults to info", input: "verbose", want: zapcore.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseLevel(tc.input))
		})
	}
}

func TestNewLogger_NilConfig(t *testing.T) {
	l := NewLogger(nil, "Runner")
	assert.NotNil(t, l)
	l = NewLogger(&models.MConfig{LogLevel: "debug"}, "Runner")
	assert.NotNil(t, l)
}
