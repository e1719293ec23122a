// Package plugin defines database plugins, the capability contracts they
// implement and the registry used to select and dispatch to them.
//
// A plugin targets one database family and a range of server versions.
// Plugins are discovered once at start up from a list of providers and never
// change afterwards:
//
//	registry := plugin.NewRegistry(builtin.Providers()...)
//	selector := &plugin.Selector{Registry: registry}
//	lister, err := plugin.Resolve[plugin.TableLister](registry, "mysql-8")
package plugin

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// Plugin is implemented by every database plugin. Capability contracts are
// discovered from the concrete type.
type Plugin interface {
	Info() *Info
}

// Scoper is implemented by plugins deriving a default catalog and schema from
// the connection configuration.
type Scoper interface {
	DefaultScope(config *ConnectionConfig) Scope
}

// Resolver is implemented by plugins filling configuration defaults such as
// host and port before connecting.
type Resolver interface {
	Resolve(config *ConnectionConfig) (*ConnectionConfig, error)
}

// Provider constructs a plugin during discovery.
type Provider func() (Plugin, error)

// Info describes a plugin.
type Info struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Version          string       `json:"version"`
	Family           string       `json:"family"`
	MinServerVersion string       `json:"minServerVersion,omitempty"`
	MaxServerVersion string       `json:"maxServerVersion,omitempty"`
	Capabilities     []Capability `json:"capabilities,omitempty"`
}

// Descriptor is a validated, immutable view of a discovered plugin.
type Descriptor struct {
	Info
	Plugin       Plugin
	version      *version.Version
	serverRange  *Range
	capabilities map[Capability]bool
}

// Implements reports whether the plugin supports capability c.
func (d *Descriptor) Implements(c Capability) bool {
	return d.capabilities[c]
}

// Range returns the supported server version range.
func (d *Descriptor) Range() *Range {
	return d.serverRange
}

// Covers reports whether the plugin supports server version v.
func (d *Descriptor) Covers(v *version.Version) bool {
	return d.serverRange.Contains(v)
}

// newDescriptor validates the plugin and resolves its capability set.
// Declared capabilities must be satisfied by the concrete type; without a
// declaration every satisfied contract is taken.
func newDescriptor(p Plugin) (*Descriptor, error) {
	if p == nil {
		return nil, fmt.Errorf("plugin is nil")
	}
	info := p.Info()
	if info == nil {
		return nil, fmt.Errorf("plugin %T: info is nil", p)
	}
	if strings.TrimSpace(info.ID) == "" {
		return nil, fmt.Errorf("plugin %T: id is empty", p)
	}
	if strings.TrimSpace(info.Family) == "" {
		return nil, fmt.Errorf("plugin %s: family is empty", info.ID)
	}
	ret := &Descriptor{Info: *info, Plugin: p, capabilities: map[Capability]bool{}}
	var err error
	if ret.version, err = version.NewVersion(info.Version); err != nil {
		return nil, fmt.Errorf("plugin %s: invalid version %q: %w", info.ID, info.Version, err)
	}
	if ret.serverRange, err = NewRange(info.MinServerVersion, info.MaxServerVersion); err != nil {
		return nil, fmt.Errorf("plugin %s: %w", info.ID, err)
	}
	declared := info.Capabilities
	if len(declared) == 0 {
		for _, capability := range Capabilities() {
			if capability.SatisfiedBy(p) {
				declared = append(declared, capability)
			}
		}
	}
	for _, capability := range declared {
		if !capability.Known() {
			return nil, fmt.Errorf("plugin %s: unknown capability %q", info.ID, capability)
		}
		if !capability.SatisfiedBy(p) {
			return nil, fmt.Errorf("plugin %s: declares %s but %T does not implement it", info.ID, capability, p)
		}
		ret.capabilities[capability] = true
	}
	ret.Info.Capabilities = make([]Capability, 0, len(ret.capabilities))
	for _, capability := range Capabilities() {
		if ret.capabilities[capability] {
			ret.Info.Capabilities = append(ret.Info.Capabilities, capability)
		}
	}
	return ret, nil
}
