// Package logging builds the service's structured logger.
//
// # Overview
//
// The logging package configures Go's log/slog for the service:
//   - JSON or text output at a configurable level
//   - Redaction of provider credentials (API keys, bearer tokens) in
//     string attributes
//   - Context fields: request_id, provider and feature stored with the
//     With* helpers are added to every record logged with a context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	ctx = logging.WithFeature(ctx, "chat")
//	logger.InfoContext(ctx, "provider selected", "provider", "groq")
//	// {"msg":"provider selected","provider":"groq","request_id":"req-123","feature":"chat",...}
//
// # Redaction
//
// Provider error messages are logged and forwarded into alerts verbatim, and
// some providers echo the request URL or headers back. Redaction rewrites:
//
//   - sk-proj-abc123 → sk-***
//   - gsk_abc123 → gsk_***
//   - AIzaSy... → AIza***
//   - Bearer abc.def → Bearer ***
//   - ?key=abc123 → ?key=***
package logging
