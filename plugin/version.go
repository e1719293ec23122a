package plugin

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"
)

var numericPrefix = regexp.MustCompile(`\d+(\.\d+)*`)

// ParseServerVersion extracts the dotted numeric part of a server version
// string, e.g. "8.0.33-0ubuntu0.22.04.2" -> 8.0.33, "PostgreSQL 15.3 on x86_64" -> 15.3.
func ParseServerVersion(text string) (*version.Version, error) {
	match := numericPrefix.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("invalid server version: %q", text)
	}
	return version.NewVersion(match)
}

// Range is an inclusive server version range; a nil Max is unbounded.
type Range struct {
	Min *version.Version
	Max *version.Version
}

// NewRange parses the bounds; an empty upper bound means unbounded.
func NewRange(lower, upper string) (*Range, error) {
	ret := &Range{}
	var err error
	if lower == "" {
		lower = "0"
	}
	if ret.Min, err = version.NewVersion(lower); err != nil {
		return nil, fmt.Errorf("invalid minimum server version %q: %w", lower, err)
	}
	if upper != "" {
		if ret.Max, err = version.NewVersion(upper); err != nil {
			return nil, fmt.Errorf("invalid maximum server version %q: %w", upper, err)
		}
		if ret.Max.LessThan(ret.Min) {
			return nil, fmt.Errorf("invalid server version range [%s, %s]", lower, upper)
		}
	}
	return ret, nil
}

// Contains reports whether v falls in the range.
func (r *Range) Contains(v *version.Version) bool {
	if v.LessThan(r.Min) {
		return false
	}
	return r.Max == nil || !v.GreaterThan(r.Max)
}

// NarrowerThan reports whether r is more specific than other: higher
// minimum first, then bounded over unbounded, then the lower maximum.
func (r *Range) NarrowerThan(other *Range) bool {
	if !r.Min.Equal(other.Min) {
		return r.Min.GreaterThan(other.Min)
	}
	switch {
	case r.Max == nil:
		return false
	case other.Max == nil:
		return true
	}
	return r.Max.LessThan(other.Max)
}

func (r *Range) String() string {
	if r.Max == nil {
		return fmt.Sprintf("[%s, ∞)", r.Min.Original())
	}
	return fmt.Sprintf("[%s, %s]", r.Min.Original(), r.Max.Original())
}
