package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/switchboard/pkg/budget"
	"mercator-hq/switchboard/pkg/provider"
)

// skip reasons recorded on a Decision
const (
	skipExcluded = "excluded by caller"
)

// Evaluator reports the current budget status of a provider.
type Evaluator interface {
	Evaluate(ctx context.Context, cfg provider.Config) budget.Status
}

// Selector picks a provider for a feature by walking its providers in
// priority order. It is safe for concurrent use.
type Selector struct {
	registry  *provider.Registry
	evaluator Evaluator
	stats     *AtomicRoutingStats
	logger    *slog.Logger
	nowFunc   func() time.Time
}

// NewSelector creates a Selector. A nil logger defaults to slog.Default().
func NewSelector(registry *provider.Registry, evaluator Evaluator, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		registry:  registry,
		evaluator: evaluator,
		stats:     NewAtomicRoutingStats(),
		logger:    logger.With("component", "routing"),
		nowFunc:   time.Now,
	}
}

// Stats returns a snapshot of the selector's routing statistics.
func (s *Selector) Stats() *RoutingStats {
	return s.stats.Snapshot()
}

// Select chooses a provider for feature, skipping the providers in excluded.
//
// The first provider in priority order that is not excluded and has budget
// left wins. When none qualifies, the registry's last-resort provider is
// returned with ReasonLastResort. Select never fails to produce a provider.
func (s *Selector) Select(ctx context.Context, feature string, excluded []provider.ID) Decision {
	if feature == "" {
		feature = provider.DefaultFeature
	}

	skip := make(map[provider.ID]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	route := s.registry.ForFeature(feature)
	decision := Decision{Feature: feature, DecidedAt: s.nowFunc()}
	evaluated := make(map[provider.ID]budget.Status, len(route))

	for i, cfg := range route {
		if skip[cfg.ID] {
			decision.Skipped = append(decision.Skipped, Skip{Provider: cfg.ID, Reason: skipExcluded})
			s.stats.IncrementExcluded()
			continue
		}

		status := s.evaluator.Evaluate(ctx, cfg)
		evaluated[cfg.ID] = status
		if !status.Available {
			decision.Skipped = append(decision.Skipped, Skip{Provider: cfg.ID, Reason: status.Reason})
			s.stats.IncrementOverBudget()
			continue
		}

		decision.Provider = cfg.ID
		decision.Status = status
		decision.Degraded = !(i == 0 && status.Free)
		if i == 0 {
			decision.Code = ReasonPrimary
			decision.Reason = primaryReason(feature, status)
		} else {
			decision.Code = ReasonFallback
			decision.Reason = fallbackReason(cfg.ID, status, decision.Skipped)
		}
		return s.finish(decision)
	}

	last := s.registry.LastResort(feature)
	status, ok := evaluated[last.ID]
	if !ok {
		status = s.evaluator.Evaluate(ctx, last)
	}

	decision.Provider = last.ID
	decision.Status = status
	decision.Code = ReasonLastResort
	decision.Degraded = true
	decision.Reason = lastResortReason(feature, last.ID, status)

	s.logger.Warn("no provider within budget policy, using last resort",
		"feature", feature,
		"provider", last.ID,
		"skipped", len(decision.Skipped),
	)

	return s.finish(decision)
}

func (s *Selector) finish(d Decision) Decision {
	s.stats.Record(d)
	s.logger.Debug("provider selected",
		"feature", d.Feature,
		"provider", d.Provider,
		"code", d.Code,
		"degraded", d.Degraded,
	)
	return d
}

func primaryReason(feature string, status budget.Status) string {
	if status.Free {
		return fmt.Sprintf("%s is the preferred free-tier provider for %s", status.Provider, feature)
	}
	return fmt.Sprintf("%s is the preferred provider for %s; paid tier, spent %s",
		status.Provider, feature, status.SpendSummary())
}

func fallbackReason(id provider.ID, status budget.Status, skipped []Skip) string {
	names := make([]string, len(skipped))
	for i, sk := range skipped {
		names[i] = string(sk.Provider)
	}
	reason := fmt.Sprintf("%s selected after skipping %s", id, strings.Join(names, ", "))
	if status.Free {
		return reason + "; free tier"
	}
	return reason + "; paid tier, spent " + status.SpendSummary()
}

func lastResortReason(feature string, id provider.ID, status budget.Status) string {
	reason := fmt.Sprintf("every provider for %s is excluded or over budget; "+
		"last resort %s is used outside normal budget policy", feature, id)
	if status.Reason != "" {
		return reason + " (" + status.Reason + ")"
	}
	return reason + " (spent " + status.SpendSummary() + ")"
}
