package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultWebhookTimeout bounds one webhook delivery.
const DefaultWebhookTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// WebhookConfig configures a WebhookSink.
type WebhookConfig struct {
	// URL receives a JSON POST per message.
	URL string

	// Headers are added to every request, e.g. an authorization header.
	Headers map[string]string

	// Timeout bounds each delivery.
	// Default: 10s
	Timeout time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// WebhookSink posts messages as JSON. Any non-2xx response is a failure.
type WebhookSink struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// webhookPayload is the request body. Text duplicates the rendered message
// so chat webhooks that only read a "text" field show something useful.
type webhookPayload struct {
	Message
	Text string `json:"text"`
}

// NewWebhookSink creates a WebhookSink.
func NewWebhookSink(cfg WebhookConfig) (*WebhookSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook url cannot be empty")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("webhook url must be an absolute http(s) url, got %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWebhookTimeout
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			Timeout: cfg.Timeout,
		}
	}

	return &WebhookSink{url: cfg.URL, headers: cfg.Headers, client: client}, nil
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

// Deliver implements Sink.
func (s *WebhookSink) Deliver(ctx context.Context, msg Message) error {
	body, err := json.Marshal(webhookPayload{Message: msg, Text: msg.Text()})
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Message: "failed to encode payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Message: "failed to create request", Err: err}
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &DeliveryError{
		Sink:       s.Name(),
		StatusCode: resp.StatusCode,
		Message:    string(bytes.TrimSpace(errorBody)),
	}
}
