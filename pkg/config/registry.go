package config

import (
	"fmt"
	"time"

	"mercator-hq/switchboard/pkg/provider"
)

// Registry builds the provider registry described by the configuration.
func (c *Config) Registry() (*provider.Registry, error) {
	configs := make([]provider.Config, 0, len(c.Providers))
	for i, p := range c.Providers {
		id, err := provider.ParseID(p.ID)
		if err != nil {
			return nil, fmt.Errorf("providers[%d]: %w", i, err)
		}
		pc := provider.Config{
			ID:             id,
			DailyLimit:     p.DailyLimit,
			AlertThreshold: p.AlertThreshold,
			CostPerUnit:    p.CostPerUnit,
			Priority:       p.Priority,
		}
		if p.MonthlyBudget != nil {
			budget := *p.MonthlyBudget
			pc.MonthlyBudget = &budget
		}
		configs = append(configs, pc)
	}

	var features map[string][]provider.ID
	if len(c.Features) > 0 {
		features = make(map[string][]provider.ID, len(c.Features))
		for name, f := range c.Features {
			ids := make([]provider.ID, 0, len(f.Providers))
			for _, raw := range f.Providers {
				id, err := provider.ParseID(raw)
				if err != nil {
					return nil, fmt.Errorf("features.%s: %w", name, err)
				}
				ids = append(ids, id)
			}
			features[name] = ids
		}
	}

	var lastResort provider.ID
	if c.Routing.LastResort != "" {
		id, err := provider.ParseID(c.Routing.LastResort)
		if err != nil {
			return nil, fmt.Errorf("routing.last_resort: %w", err)
		}
		lastResort = id
	}

	return provider.NewRegistry(configs, features, lastResort)
}

// Location returns the time zone that defines budget days and months.
func (b BudgetConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(b.Timezone)
}
