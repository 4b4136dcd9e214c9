package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"openai key", "invalid api key sk-proj-abc123def456", "invalid api key sk-***"},
		{"anthropic key", "key sk-ant-api03-abcdef rejected", "key sk-*** rejected"},
		{"groq key", "gsk_abcdef123456 expired", "gsk_*** expired"},
		{"google key", "key=AIzaSyA1234567890abcdefghijk", "key=AIza***"},
		{"query key", "GET https://host/v1?key=secretvalue&alt=json", "GET https://host/v1?key=***&alt=json"},
		{"bearer token", "Authorization: Bearer abc.def.ghi", "Authorization: Bearer ***"},
		{"password", "password=hunter2", "password: ***"},
		{"plain text", "connection refused", "connection refused"},
		{"short sk prefix", "task-sk-1", "task-sk-1"},
		{"empty", "", ""},
	}

	r := NewRedactor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactor_CustomPatterns(t *testing.T) {
	r := NewRedactor([]Pattern{
		{Name: "internal_token", Pattern: `tok_[a-z0-9]{8}`, Replacement: "tok_***"},
		{Name: "invalid", Pattern: `[unclosed`, Replacement: "***"},
	})

	if len(r.patterns) != len(defaultPatterns)+1 {
		t.Errorf("len(patterns) = %d, want %d", len(r.patterns), len(defaultPatterns)+1)
	}
	if got := r.RedactString("tok_abcd1234"); got != "tok_***" {
		t.Errorf("RedactString() = %q, want tok_***", got)
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("upstream said: sk-live-0123456789"); got != "upstream said: sk-***" {
		t.Errorf("Redact() = %q", got)
	}
}

func TestRedactor_ReplaceAttr(t *testing.T) {
	r := NewRedactor(nil)

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"sensitive key", slog.String("Authorization", "Basic abc"), "***"},
		{"string value", slog.String("detail", "key gsk_abcdef123456"), "key gsk_***"},
		{"error value", slog.Any("error", errors.New("bad sk-abcdef123456")), "bad sk-***"},
		{"number untouched", slog.Int("count", 5), "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ReplaceAttr(nil, tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("ReplaceAttr() = %q, want %q", got.Value.String(), tt.want)
			}
		})
	}
}
