// Package notify delivers operator alerts.
//
// A Sink delivers one Message and reports failure as an error. Callers treat
// delivery failure as non-fatal: it is logged and never retried within the
// same evaluation cycle.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Severity is the urgency of a message.
type Severity string

// Supported severities.
const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Message is one alert notification.
type Message struct {
	// Key identifies the alert, e.g. "error_rate:groq:chat".
	Key string `json:"key"`

	Condition string   `json:"condition"`
	Severity  Severity `json:"severity"`
	Provider  string   `json:"provider"`
	Feature   string   `json:"feature"`

	// Title is a short single-line summary.
	Title string `json:"title"`

	// Body carries the measured values behind the alert.
	Body string `json:"body"`

	Timestamp time.Time `json:"timestamp"`
}

// Text renders the message as a single notification string.
func (m Message) Text() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(m.Severity)), m.Title, m.Body)
}

// Sink delivers messages to an operator channel.
type Sink interface {
	// Deliver sends one message. A nil error means it was accepted.
	Deliver(ctx context.Context, msg Message) error

	// Name identifies the sink in logs.
	Name() string
}

// ErrDeliveryFailed is matched by every sink delivery error.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// DeliveryError describes a failed delivery.
type DeliveryError struct {
	// Sink is the name of the failing sink.
	Sink string

	// StatusCode is the HTTP status for webhook sinks, 0 otherwise.
	StatusCode int

	// Message describes the failure.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	msg := fmt.Sprintf("%s: delivery failed", e.Sink)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is().
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailed
}
