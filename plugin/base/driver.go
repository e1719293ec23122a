package base

import (
	"fmt"

	"github.com/hashicorp/go-version"
	"github.com/viant/dbkit/plugin"
)

// DriverCoordinate returns the driver artifact for driverVersion, or the
// dialect default when empty. Versions outside the artifact constraint are
// rejected with plugin.ErrVersionRejected.
func (p *Plugin) DriverCoordinate(driverVersion string) (*plugin.Coordinate, error) {
	if p.Driver == nil {
		return nil, &plugin.CapabilityError{PluginID: p.info.ID, Capability: plugin.Driver}
	}
	ret := &plugin.Coordinate{Group: p.Driver.Group, Artifact: p.Driver.Artifact, Version: p.Driver.Version}
	if driverVersion == "" {
		return ret, nil
	}
	requested, err := version.NewVersion(driverVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: invalid driver version %q", plugin.ErrVersionRejected, p.info.ID, driverVersion)
	}
	if p.Driver.Constraint != "" {
		constraints, err := version.NewConstraint(p.Driver.Constraint)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid driver constraint %q: %w", p.info.ID, p.Driver.Constraint, err)
		}
		if !constraints.Check(requested) {
			return nil, fmt.Errorf("%w: %s accepts driver %s, got %s", plugin.ErrVersionRejected, p.info.ID, p.Driver.Constraint, driverVersion)
		}
	}
	return ret.WithVersion(driverVersion), nil
}
