// Package logging provides zap-based structured logging and the presentation
// layer that renders recovery lifecycle events as log lines.
//
//	log, err := logging.New(cfg.EffectiveLogLevel())
//	if err != nil {
//	    return err
//	}
//	defer log.Sync()
//
//	mgr, err := recovery.NewManager(recovery.Config{
//	    Mode: mode,
//	    Sink: logging.NewEventSink(log),
//	})
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeremyhahn/go-recovery/pkg/recovery"
)

// New builds a production zap logger at the given level. Unknown levels fall
// back to info.
func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return log, nil
}

// EventSink writes recovery events to a zap logger.
type EventSink struct {
	log *zap.Logger
}

// NewEventSink returns a sink that logs under the "recovery" logger name.
// A nil logger discards everything.
func NewEventSink(log *zap.Logger) *EventSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventSink{log: log.Named("recovery")}
}

// Emit renders e and writes one log entry per rendered line.
func (s *EventSink) Emit(e recovery.Event) {
	fields := []zap.Field{zap.String("event", string(e.Kind))}
	if !e.ExpiresAt.IsZero() {
		fields = append(fields, zap.Time("expires_at", e.ExpiresAt))
	}

	for _, line := range recovery.Render(e) {
		switch line.Level {
		case recovery.LevelWarn:
			s.log.Warn(line.Text, fields...)
		default:
			s.log.Info(line.Text, fields...)
		}
	}
}

var _ recovery.EventSink = (*EventSink)(nil)
