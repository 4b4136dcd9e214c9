package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Pattern is a custom redaction rule.
type Pattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Redactor rewrites credentials in strings.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternOpenAIKey   = "openai_key"
	PatternGroqKey     = "groq_key"
	PatternGoogleKey   = "google_key"
	PatternBearerToken = "bearer_token"
	PatternQueryKey    = "query_key"
	PatternPassword    = "password"
)

// Applied in order; sk-ant- and sk-or- keys are covered by the sk- rule.
var defaultPatterns = []Pattern{
	{Name: PatternOpenAIKey, Pattern: `sk-[A-Za-z0-9_\-]{6,}`, Replacement: "sk-***"},
	{Name: PatternGroqKey, Pattern: `gsk_[A-Za-z0-9]{6,}`, Replacement: "gsk_***"},
	{Name: PatternGoogleKey, Pattern: `AIza[0-9A-Za-z_\-]{20,}`, Replacement: "AIza***"},
	{Name: PatternBearerToken, Pattern: `(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`, Replacement: "Bearer ***"},
	{Name: PatternQueryKey, Pattern: `([?&](?:key|api_key|apikey|token)=)[^&\s"]+`, Replacement: "${1}***"},
	{Name: PatternPassword, Pattern: `(password|passwd|pwd)[:=]\s*[^\s]+`, Replacement: "$1: ***"},
}

var defaultRedactor = NewRedactor(nil)

// Redact rewrites credentials in s using the built-in patterns.
func Redact(s string) string {
	return defaultRedactor.RedactString(s)
}

// NewRedactor creates a Redactor with the built-in patterns followed by
// custom. Custom patterns that fail to compile are skipped.
func NewRedactor(custom []Pattern) *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regexp.MustCompile(p.Pattern),
			replacement: p.Replacement,
		})
	}
	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}
	return r
}

// RedactString redacts credentials from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Attributes with a
// sensitive key are masked entirely; other string and error values are
// pattern-redacted.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

// isSensitiveKey checks if a key name indicates a credential.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range []string{"password", "secret", "api_key", "apikey", "authorization", "token"} {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}
