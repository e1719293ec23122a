package plugin

import (
	"fmt"
)

// Resolve returns the capability contract T of plugin id, or an error when
// the plugin is unknown or does not implement it. It never returns a zero
// handle with a nil error.
func Resolve[T any](registry *Registry, id string) (T, error) {
	var zero T
	descriptor, ok := registry.Lookup(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrPluginNotFound, id)
	}
	return As[T](descriptor)
}

// ResolveVersion selects the plugin for family and observed server version
// and returns its capability contract T.
func ResolveVersion[T any](selector *Selector, family, observed string) (T, error) {
	var zero T
	selection, err := selector.Select(family, observed)
	if err != nil {
		return zero, err
	}
	return As[T](selection.Descriptor)
}

// As returns the capability contract T of a discovered plugin.
func As[T any](descriptor *Descriptor) (T, error) {
	var zero T
	capability, ok := CapabilityOf[T]()
	if !ok {
		return zero, fmt.Errorf("%T is not a capability contract", (*T)(nil))
	}
	if !descriptor.Implements(capability) {
		return zero, &CapabilityError{PluginID: descriptor.ID, Capability: capability}
	}
	ret, ok := descriptor.Plugin.(T)
	if !ok {
		return zero, &CapabilityError{PluginID: descriptor.ID, Capability: capability}
	}
	return ret, nil
}
