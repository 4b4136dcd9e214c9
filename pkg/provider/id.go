package provider

import (
	"fmt"
	"strings"
)

// ID identifies an upstream AI provider. The set of valid identifiers is
// closed: configuration referencing any other value is rejected at load time.
type ID string

const (
	// Groq is the Groq inference API (free tier).
	Groq ID = "groq"

	// Gemini is Google's Gemini API.
	Gemini ID = "gemini"

	// OpenRouter is the OpenRouter aggregation API.
	OpenRouter ID = "openrouter"

	// Mistral is the Mistral AI platform.
	Mistral ID = "mistral"

	// OpenAI is the OpenAI API.
	OpenAI ID = "openai"

	// Anthropic is the Anthropic API.
	Anthropic ID = "anthropic"
)

// known lists every recognized provider in declaration order.
var known = []ID{Groq, Gemini, OpenRouter, Mistral, OpenAI, Anthropic}

// Known returns all recognized provider identifiers.
func Known() []ID {
	out := make([]ID, len(known))
	copy(out, known)
	return out
}

// ParseID converts a configuration string into a provider ID.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseID(s string) (ID, error) {
	candidate := ID(strings.ToLower(strings.TrimSpace(s)))
	for _, id := range known {
		if id == candidate {
			return id, nil
		}
	}
	return "", &UnknownProviderError{Value: s}
}

// Valid reports whether id is one of the recognized providers.
func (id ID) Valid() bool {
	for _, k := range known {
		if k == id {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// UnknownProviderError is returned when a provider identifier is not part of
// the recognized set.
type UnknownProviderError struct {
	// Value is the rejected identifier as written in configuration.
	Value string
}

// Error implements the error interface.
func (e *UnknownProviderError) Error() string {
	names := make([]string, len(known))
	for i, id := range known {
		names[i] = string(id)
	}
	return fmt.Sprintf("unknown provider %q (known providers: %s)", e.Value, strings.Join(names, ", "))
}

// Is implements error matching for errors.Is().
func (e *UnknownProviderError) Is(target error) bool {
	return target == ErrUnknownProvider
}
