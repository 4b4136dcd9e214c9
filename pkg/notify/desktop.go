package notify

import (
	"context"

	"github.com/gen2brain/beeep"
)

// DesktopSink raises a native desktop notification.
type DesktopSink struct {
	icon string

	// notify is beeep.Notify outside tests.
	notify func(title, message string, icon any) error
}

// NewDesktopSink creates a DesktopSink. icon may be empty.
func NewDesktopSink(icon string) *DesktopSink {
	return &DesktopSink{icon: icon, notify: beeep.Notify}
}

// Name implements Sink.
func (s *DesktopSink) Name() string { return "desktop" }

// Deliver implements Sink.
func (s *DesktopSink) Deliver(_ context.Context, msg Message) error {
	if err := s.notify(msg.Title, msg.Body, s.icon); err != nil {
		return &DeliveryError{Sink: s.Name(), Err: err}
	}
	return nil
}
