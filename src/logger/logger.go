package logger

import (
	"fmt"
	"os"
	"strings"

	"market-backfill/src/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -----------------------------------------------------------------------------

// Logger is a named, printf-style logger backed by zap.
type Logger struct {
	name   string
	logger *zap.Logger
	exit   func(int)
}

// -----------------------------------------------------------------------------

// NewLogger creates a Logger for the component name. The level comes from
// cfg.LogLevel; a nil config logs at info.
func NewLogger(cfg *models.MConfig, name string) *Logger {
	level := zapcore.InfoLevel
	if cfg != nil {
		level = parseLevel(cfg.LogLevel)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableStacktrace = true
	if cfg != nil && strings.EqualFold(cfg.LogLevel, "debug") {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zl, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: falling back to nop logger: %v\n", err)
		zl = zap.NewNop()
	}

	return &Logger{
		name:   name,
		logger: zl.Named(name),
		exit:   os.Exit,
	}
}

// -----------------------------------------------------------------------------

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{name: "nop", logger: zap.NewNop(), exit: func(int) {}}
}

// -----------------------------------------------------------------------------

// Named returns a child logger sharing the same core.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		name:   l.name + "." + name,
		logger: l.logger.Named(name),
		exit:   l.exit,
	}
}

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

func (l *Logger) Warning(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Critical logs and exits the process.
func (l *Logger) Critical(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), zap.Bool("critical", true))
	_ = l.logger.Sync()
	l.exit(1)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

// -----------------------------------------------------------------------------

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
