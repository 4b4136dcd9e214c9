package notify

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedSink drops messages above a steady rate. A dropped message is a
// delivery failure, so the caller's cooldown claim is released and the alert
// is retried on the next cycle.
type RateLimitedSink struct {
	next    Sink
	limiter *rate.Limiter
}

// NewRateLimitedSink wraps next with a limiter allowing perMinute messages on
// average and bursts of up to burst.
func NewRateLimitedSink(next Sink, perMinute float64, burst int) *RateLimitedSink {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSink{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
	}
}

// Name implements Sink.
func (s *RateLimitedSink) Name() string { return s.next.Name() }

// Deliver implements Sink.
func (s *RateLimitedSink) Deliver(ctx context.Context, msg Message) error {
	if !s.limiter.Allow() {
		return &DeliveryError{Sink: s.next.Name(), Message: "rate limit exceeded, message dropped"}
	}
	return s.next.Deliver(ctx, msg)
}
