package routing

import (
	"errors"
	"fmt"
	"strings"

	"mercator-hq/switchboard/pkg/provider"
)

// ErrInvalidExclusion is returned when an exclusion list names an unknown
// provider.
var ErrInvalidExclusion = errors.New("invalid provider exclusion")

// InvalidExclusionError lists the exclusion entries that could not be parsed.
type InvalidExclusionError struct {
	// Values contains the rejected entries.
	Values []string
}

// Error implements the error interface.
func (e *InvalidExclusionError) Error() string {
	return fmt.Sprintf("unknown providers in exclusion list: %s", strings.Join(e.Values, ", "))
}

// Is implements error matching for errors.Is().
func (e *InvalidExclusionError) Is(target error) bool {
	return target == ErrInvalidExclusion
}

// ParseExclusions converts raw provider names into IDs. Blank entries are
// ignored and duplicates collapse.
func ParseExclusions(raw []string) ([]provider.ID, error) {
	seen := make(map[provider.ID]bool, len(raw))
	out := make([]provider.ID, 0, len(raw))
	var invalid []string

	for _, v := range raw {
		if strings.TrimSpace(v) == "" {
			continue
		}
		id, err := provider.ParseID(v)
		if err != nil {
			invalid = append(invalid, v)
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	if len(invalid) > 0 {
		return nil, &InvalidExclusionError{Values: invalid}
	}
	return out, nil
}
