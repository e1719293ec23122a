package plugin

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

// Registry indexes discovered plugins by id, family and capability.
// It is built once by NewRegistry and read-only afterwards, so lookups need no
// locking. One registry is constructed per process and passed to dependents.
type Registry struct {
	plugins      []*Descriptor
	byID         map[string]*Descriptor
	byFamily     map[string][]*Descriptor
	byCapability map[Capability][]*Descriptor
}

// NewRegistry discovers plugins from providers. Discovery is best effort: a
// provider that fails, panics or yields an invalid plugin is logged and
// skipped.
func NewRegistry(providers ...Provider) *Registry {
	ret := &Registry{
		byID:         map[string]*Descriptor{},
		byFamily:     map[string][]*Descriptor{},
		byCapability: map[Capability][]*Descriptor{},
	}
	for i, provider := range providers {
		descriptor, err := discover(provider)
		if err != nil {
			log.WithError(err).Warnf("plugin discovery: skipping provider #%d", i)
			continue
		}
		if prev, ok := ret.byID[descriptor.ID]; ok {
			log.Warnf("plugin discovery: skipping %s %s, id already registered by %s %s",
				descriptor.ID, descriptor.Version, prev.ID, prev.Version)
			continue
		}
		ret.add(descriptor)
	}
	for family := range ret.byFamily {
		sortNewestFirst(ret.byFamily[family])
	}
	for capability := range ret.byCapability {
		sortNewestFirst(ret.byCapability[capability])
	}
	log.Printf("plugin discovery: registered %d plugins for %d families", len(ret.plugins), len(ret.byFamily))
	return ret
}

func discover(provider Provider) (ret *Descriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()
	if provider == nil {
		return nil, fmt.Errorf("provider is nil")
	}
	p, err := provider()
	if err != nil {
		return nil, err
	}
	return newDescriptor(p)
}

func (r *Registry) add(descriptor *Descriptor) {
	r.plugins = append(r.plugins, descriptor)
	r.byID[descriptor.ID] = descriptor
	r.byFamily[descriptor.Family] = append(r.byFamily[descriptor.Family], descriptor)
	for _, capability := range descriptor.Capabilities {
		r.byCapability[capability] = append(r.byCapability[capability], descriptor)
	}
}

// sortNewestFirst orders by plugin version, then by minimum server version.
func sortNewestFirst(descriptors []*Descriptor) {
	sort.SliceStable(descriptors, func(i, j int) bool {
		if !descriptors[i].version.Equal(descriptors[j].version) {
			return descriptors[i].version.GreaterThan(descriptors[j].version)
		}
		return descriptors[i].serverRange.Min.GreaterThan(descriptors[j].serverRange.Min)
	})
}

// Family returns the plugins of a family, newest version first.
func (r *Registry) Family(family string) []*Descriptor {
	return clone(r.byFamily[family])
}

// Capability returns the plugins implementing c, newest version first.
func (r *Registry) Capability(c Capability) []*Descriptor {
	return clone(r.byCapability[c])
}

// All returns every plugin in discovery order.
func (r *Registry) All() []*Descriptor {
	return clone(r.plugins)
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	return len(r.plugins)
}

// Lookup returns the plugin registered under id.
func (r *Registry) Lookup(id string) (*Descriptor, bool) {
	ret, ok := r.byID[id]
	return ret, ok
}

// Families returns the registered family codes in alphabetical order.
func (r *Registry) Families() []string {
	ret := make([]string, 0, len(r.byFamily))
	for family := range r.byFamily {
		ret = append(ret, family)
	}
	sort.Strings(ret)
	return ret
}

func clone(descriptors []*Descriptor) []*Descriptor {
	if len(descriptors) == 0 {
		return nil
	}
	return append(make([]*Descriptor, 0, len(descriptors)), descriptors...)
}
