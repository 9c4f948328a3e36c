package logging

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.SugaredLogger to Logger.
type ZapLogger struct {
	l *zap.SugaredLogger
}

func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{l: l.Sugar()}
}

// New builds a zap-backed Logger writing to stderr.
// format is "console" or "json"; level is any zapcore level name.
func New(level, format string) (*ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return NewZapLogger(l), nil
}

// Nop returns a Logger that discards everything.
func Nop() *ZapLogger {
	return NewZapLogger(zap.NewNop())
}

func (z *ZapLogger) Debug(_ context.Context, msg string, args ...any) {
	z.l.Debugw(msg, args...)
}

func (z *ZapLogger) Info(_ context.Context, msg string, args ...any) {
	z.l.Infow(msg, args...)
}

func (z *ZapLogger) Warn(_ context.Context, msg string, args ...any) {
	z.l.Warnw(msg, args...)
}

func (z *ZapLogger) Error(_ context.Context, msg string, args ...any) {
	z.l.Errorw(msg, args...)
}

func (z *ZapLogger) With(args ...any) Logger {
	return &ZapLogger{l: z.l.With(args...)}
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}
