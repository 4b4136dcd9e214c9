package notify

import (
	"context"
	"log/slog"
)

// LogSink writes messages to a structured logger. It never fails.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger defaults to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "notify")}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Deliver implements Sink. Critical messages log at error level.
func (s *LogSink) Deliver(ctx context.Context, msg Message) error {
	level := slog.LevelWarn
	if msg.Severity == SeverityCritical {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, msg.Title,
		"alert_key", msg.Key,
		"condition", msg.Condition,
		"severity", msg.Severity,
		"provider", msg.Provider,
		"feature", msg.Feature,
		"detail", msg.Body,
	)
	return nil
}
