package notify

import (
	"context"
	"errors"
	"log/slog"
)

// MultiSink fans a message out to several sinks. Delivery succeeds when at
// least one sink accepts the message.
type MultiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMultiSink creates a MultiSink over sinks.
func NewMultiSink(logger *slog.Logger, sinks ...Sink) *MultiSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiSink{sinks: sinks, logger: logger.With("component", "notify")}
}

// Name implements Sink.
func (m *MultiSink) Name() string { return "multi" }

// Deliver implements Sink. Sinks are tried in order; every failure is logged
// and the joined error is returned only if all of them failed.
func (m *MultiSink) Deliver(ctx context.Context, msg Message) error {
	if len(m.sinks) == 0 {
		return &DeliveryError{Sink: m.Name(), Message: "no sinks configured"}
	}

	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Deliver(ctx, msg); err != nil {
			m.logger.Warn("sink delivery failed",
				"sink", sink.Name(),
				"alert_key", msg.Key,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	if len(errs) == len(m.sinks) {
		return &DeliveryError{Sink: m.Name(), Message: "every sink failed", Err: errors.Join(errs...)}
	}
	return nil
}
