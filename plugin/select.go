package plugin

import (
	"fmt"
)

// Selection is the outcome of version based plugin selection.
type Selection struct {
	*Descriptor
	// Fallback is set when no declared range covered the observed version and
	// the newest plugin of the family was chosen instead.
	Fallback bool
}

// Selector picks the plugin best matching an observed server version.
type Selector struct {
	Registry *Registry
	// Fallback enables choosing the newest family plugin when no range
	// matches, instead of failing with ErrNoMatchingPlugin.
	Fallback bool
}

// Select returns the most specific plugin whose range contains observed.
// Ties between equally specific ranges go to the newest plugin.
func (s *Selector) Select(family, observed string) (*Selection, error) {
	candidates := s.Registry.Family(family)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
	serverVersion, err := ParseServerVersion(observed)
	if err != nil {
		if s.Fallback {
			return &Selection{Descriptor: candidates[0], Fallback: true}, nil
		}
		return nil, fmt.Errorf("%w: %v", &CoverageError{Family: family, Version: observed}, err)
	}
	var best *Descriptor
	for _, candidate := range candidates {
		if !candidate.Covers(serverVersion) {
			continue
		}
		if best == nil || candidate.serverRange.NarrowerThan(best.serverRange) {
			best = candidate
		}
	}
	if best != nil {
		return &Selection{Descriptor: best}, nil
	}
	if s.Fallback {
		return &Selection{Descriptor: candidates[0], Fallback: true}, nil
	}
	return nil, &CoverageError{Family: family, Version: observed}
}
