package connector

import (
	"github.com/viant/dbkit/plugin"
)

// Bind resolves a connection owned by owner together with the capability
// contract T of the plugin bound to it.
func Bind[T any](r *Registry, id, owner, catalog, schema string) (T, *ActiveConnection, error) {
	var zero T
	active, err := r.ResolveOwned(id, owner, catalog, schema)
	if err != nil {
		return zero, nil, err
	}
	handle, err := plugin.Resolve[T](r.plugins, active.PluginID)
	if err != nil {
		return zero, nil, err
	}
	return handle, active, nil
}

// Plugins returns the plugin registry connections are bound to.
func (r *Registry) Plugins() *plugin.Registry {
	return r.plugins
}
