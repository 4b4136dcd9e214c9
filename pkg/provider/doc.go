// Package provider defines the closed set of upstream AI provider identifiers
// and the validated, priority-ordered provider registry.
//
// Every other orchestration package receives provider configuration through a
// Registry. Construction fails on unknown identifiers, duplicate priority
// ranks and feature routes that name unconfigured providers, so those
// mistakes surface at startup instead of during request handling.
package provider
