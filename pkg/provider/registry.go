package provider

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownProvider is returned when configuration references a provider
	// outside the recognized set.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrDuplicatePriority is returned when two providers share a priority rank.
	ErrDuplicatePriority = errors.New("duplicate provider priority")

	// ErrDuplicateProvider is returned when a provider is configured twice.
	ErrDuplicateProvider = errors.New("duplicate provider")

	// ErrNoProviders is returned when the registry would be empty.
	ErrNoProviders = errors.New("no providers configured")

	// ErrProviderNotConfigured is returned when a feature route or the
	// last-resort designation names a provider that has no configuration.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// DefaultFeature is the feature name used when no feature routes are configured.
const DefaultFeature = "default"

// Config is the static configuration of one provider.
type Config struct {
	// ID is the provider identifier.
	ID ID

	// MonthlyBudget is the spend ceiling in USD for the current calendar
	// month. Nil marks a free provider with no ceiling.
	MonthlyBudget *float64

	// DailyLimit is the provider's daily request quota. It is reported but
	// never used to deny selection.
	DailyLimit int64

	// AlertThreshold is the fraction of MonthlyBudget at which a budget
	// warning is raised (e.g. 0.8).
	AlertThreshold float64

	// CostPerUnit is the approximate USD cost of one request.
	CostPerUnit float64

	// Priority orders providers; lower values are tried first.
	Priority int
}

// Free reports whether the provider has no monthly budget ceiling.
func (c Config) Free() bool {
	return c.MonthlyBudget == nil
}

// Budget returns the monthly budget, or 0 for free providers.
func (c Config) Budget() float64 {
	if c.MonthlyBudget == nil {
		return 0
	}
	return *c.MonthlyBudget
}

// Registry holds the validated provider set in priority order together with
// per-feature routes. A Registry is immutable after construction and safe for
// concurrent use.
type Registry struct {
	ordered    []Config
	byID       map[ID]Config
	features   map[string][]ID
	lastResort ID
}

// NewRegistry validates the provider configurations and builds a Registry.
//
// features maps a feature name to the providers allowed to serve it; a nil or
// empty map routes a single DefaultFeature to every provider. lastResort may
// be empty, in which case the least preferred paid provider of each feature
// is used when selection is exhausted.
func NewRegistry(configs []Config, features map[string][]ID, lastResort ID) (*Registry, error) {
	if len(configs) == 0 {
		return nil, ErrNoProviders
	}

	r := &Registry{
		ordered:  make([]Config, 0, len(configs)),
		byID:     make(map[ID]Config, len(configs)),
		features: make(map[string][]ID),
	}

	priorities := make(map[int]ID, len(configs))
	for _, c := range configs {
		if !c.ID.Valid() {
			return nil, &UnknownProviderError{Value: string(c.ID)}
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProvider, c.ID)
		}
		if other, dup := priorities[c.Priority]; dup {
			return nil, fmt.Errorf("%w: %s and %s both have priority %d",
				ErrDuplicatePriority, other, c.ID, c.Priority)
		}
		priorities[c.Priority] = c.ID
		r.byID[c.ID] = c
		r.ordered = append(r.ordered, c)
	}

	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].Priority < r.ordered[j].Priority
	})

	if len(features) == 0 {
		features = map[string][]ID{DefaultFeature: nil}
	}
	for name, ids := range features {
		route, err := r.buildRoute(name, ids)
		if err != nil {
			return nil, err
		}
		r.features[name] = route
	}

	if lastResort != "" {
		if !lastResort.Valid() {
			return nil, &UnknownProviderError{Value: string(lastResort)}
		}
		if _, ok := r.byID[lastResort]; !ok {
			return nil, fmt.Errorf("%w: last resort %s", ErrProviderNotConfigured, lastResort)
		}
		r.lastResort = lastResort
	}

	return r, nil
}

// buildRoute resolves a feature's provider list into priority order.
// An empty list means every configured provider.
func (r *Registry) buildRoute(feature string, ids []ID) ([]ID, error) {
	if len(ids) == 0 {
		route := make([]ID, len(r.ordered))
		for i, c := range r.ordered {
			route[i] = c.ID
		}
		return route, nil
	}

	allowed := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if !id.Valid() {
			return nil, &UnknownProviderError{Value: string(id)}
		}
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("%w: feature %q references %s", ErrProviderNotConfigured, feature, id)
		}
		allowed[id] = true
	}

	route := make([]ID, 0, len(allowed))
	for _, c := range r.ordered {
		if allowed[c.ID] {
			route = append(route, c.ID)
		}
	}
	return route, nil
}

// Providers returns every configured provider in ascending priority order.
func (r *Registry) Providers() []Config {
	out := make([]Config, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Lookup returns the configuration of a provider.
func (r *Registry) Lookup(id ID) (Config, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Features returns the configured feature names in sorted order.
func (r *Registry) Features() []string {
	names := make([]string, 0, len(r.features))
	for name := range r.features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFeature returns the providers allowed to serve a feature in ascending
// priority order. Features without an explicit route use every provider.
func (r *Registry) ForFeature(feature string) []Config {
	ids, ok := r.features[feature]
	if !ok {
		return r.Providers()
	}
	out := make([]Config, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}

// LastResort returns the provider handed out when every candidate for a
// feature is excluded or over budget.
//
// The configured designation wins. Otherwise the least preferred paid provider
// of the feature is used, then the least preferred paid provider overall, and
// finally the least preferred provider of the feature.
func (r *Registry) LastResort(feature string) Config {
	if r.lastResort != "" {
		return r.byID[r.lastResort]
	}

	candidates := r.ForFeature(feature)
	for i := len(candidates) - 1; i >= 0; i-- {
		if !candidates[i].Free() {
			return candidates[i]
		}
	}
	for i := len(r.ordered) - 1; i >= 0; i-- {
		if !r.ordered[i].Free() {
			return r.ordered[i]
		}
	}
	return candidates[len(candidates)-1]
}

// Paid returns the providers with a finite monthly budget in priority order.
func (r *Registry) Paid() []Config {
	var out []Config
	for _, c := range r.ordered {
		if !c.Free() {
			out = append(out, c)
		}
	}
	return out
}
