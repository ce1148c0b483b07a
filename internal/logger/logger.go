package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured event logger used across the harvester.
// Every entry carries a human message, a stable event type and a bag of
// structured fields.
type Logger interface {
	DebugObj(msg, eventType string, fields map[string]any)
	InfoObj(msg, eventType string, fields map[string]any)
	WarnObj(msg, eventType string, fields map[string]any)
	ErrorObj(msg, eventType string, fields map[string]any)
}

// zapLogger adapts a zap.Logger to the Logger interface.
type zapLogger struct {
	log *zap.Logger
}

// New builds a production zap-backed logger at the given level.
// Unknown levels fall back to info.
func New(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &zapLogger{log: log}, nil
}

func (l *zapLogger) DebugObj(msg, eventType string, fields map[string]any) {
	l.log.Debug(msg, eventFields(eventType, fields)...)
}

func (l *zapLogger) InfoObj(msg, eventType string, fields map[string]any) {
	l.log.Info(msg, eventFields(eventType, fields)...)
}

func (l *zapLogger) WarnObj(msg, eventType string, fields map[string]any) {
	l.log.Warn(msg, eventFields(eventType, fields)...)
}

func (l *zapLogger) ErrorObj(msg, eventType string, fields map[string]any) {
	l.log.Error(msg, eventFields(eventType, fields)...)
}

// eventFields flattens the event type and field map into zap fields.
func eventFields(eventType string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	out = append(out, zap.String("event_type", eventType))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// NopLogger discards all log entries.
type NopLogger struct{}

func (NopLogger) DebugObj(string, string, map[string]any) {}
func (NopLogger) InfoObj(string, string, map[string]any)  {}
func (NopLogger) WarnObj(string, string, map[string]any)  {}
func (NopLogger) ErrorObj(string, string, map[string]any) {}
