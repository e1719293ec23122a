package connector

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/viant/dbkit/plugin"
)

type entry struct {
	db        *sql.DB
	connector plugin.Connector
	metadata  atomic.Pointer[Metadata]
}

// Registry tracks live connections keyed by connection id. Operations on a
// key are atomic; there is no registry-wide lock.
type Registry struct {
	plugins  *plugin.Registry
	selector *plugin.Selector
	entries  sync.Map
	now      func() time.Time
}

// handshake is the outcome of a successful connect attempt. config carries
// the defaults the connecting plugin filled in.
type handshake struct {
	db            *sql.DB
	connector     plugin.Connector
	serverVersion string
	config        *plugin.ConnectionConfig
}

// Open connects to the configured database for owner, or returns the live
// connection already registered under the same id. Every plugin of the family
// able to connect is tried in turn; the first that connects reports the
// server version which then selects the plugin bound to the connection.
func (r *Registry) Open(ctx context.Context, config *plugin.ConnectionConfig, owner string) (*Metadata, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	family := r.plugins.Family(config.Family)
	if len(family) == 0 {
		return nil, fmt.Errorf("%w: %s", plugin.ErrUnknownFamily, config.Family)
	}
	var candidates []*plugin.Descriptor
	for _, descriptor := range family {
		if descriptor.Implements(plugin.Connect) {
			candidates = append(candidates, descriptor)
		}
	}
	winner, connected, err := plugin.Attempt(ctx, candidates, func(ctx context.Context, candidate *plugin.Descriptor) (*handshake, error) {
		return r.connect(ctx, candidate, config)
	})
	if err != nil {
		return nil, err
	}
	selection, err := r.selector.Select(config.Family, connected.serverVersion)
	if err != nil {
		r.closeHandle(winner.ID, connected.connector, connected.db)
		return nil, err
	}
	if selection.Fallback {
		log.WithField("plugin", selection.ID).Warnf("no %s plugin covers server version %s, falling back", config.Family, connected.serverVersion)
	}

	now := r.now()
	resolved := connected.config
	metadata := &Metadata{
		ID:            ConnectionID(owner, resolved.Family, resolved.Host, resolved.Port, resolved.Database, resolved.Username, selection.ID),
		Owner:         owner,
		Family:        resolved.Family,
		Host:          resolved.Host,
		Port:          resolved.Port,
		Database:      resolved.Database,
		Username:      resolved.Username,
		PluginID:      selection.ID,
		ServerVersion: connected.serverVersion,
		Fallback:      selection.Fallback,
		Created:       now,
		LastAccessed:  now,
	}
	if scoper, ok := selection.Plugin.(plugin.Scoper); ok {
		scope := scoper.DefaultScope(resolved)
		metadata.Catalog, metadata.Schema = scope.Catalog, scope.Schema
	}
	candidate := &entry{db: connected.db, connector: connected.connector}
	candidate.metadata.Store(metadata)
	actual, loaded := r.entries.LoadOrStore(metadata.ID, candidate)
	if loaded {
		r.closeHandle(winner.ID, connected.connector, connected.db)
		return r.touch(actual.(*entry)), nil
	}
	log.WithField("connection", metadata.ID).Printf("opened %s connection to %s:%d/%s using %s (server %s)",
		resolved.Family, resolved.Host, resolved.Port, resolved.Database, selection.ID, connected.serverVersion)
	return copyOf(metadata), nil
}

func (r *Registry) connect(ctx context.Context, candidate *plugin.Descriptor, config *plugin.ConnectionConfig) (*handshake, error) {
	connector, err := plugin.As[plugin.Connector](candidate)
	if err != nil {
		return nil, err
	}
	db, err := connector.Connect(ctx, config)
	if err != nil {
		log.WithField("plugin", candidate.ID).WithError(err).Debug("connect attempt failed")
		return nil, err
	}
	serverVersion, err := connector.ServerVersion(ctx, db)
	if err != nil {
		r.closeHandle(candidate.ID, connector, db)
		return nil, plugin.NewConnectError(candidate.ID, config.Host, config.Port, err)
	}
	ret := &handshake{db: db, connector: connector, serverVersion: serverVersion, config: config}
	if resolver, ok := candidate.Plugin.(plugin.Resolver); ok {
		if resolved, err := resolver.Resolve(config); err == nil {
			ret.config = resolved
		}
	}
	return ret, nil
}

func (r *Registry) closeHandle(pluginID string, connector plugin.Connector, db *sql.DB) {
	if err := connector.Close(db); err != nil {
		log.WithField("plugin", pluginID).WithError(err).Warn("failed to close connection handle")
	}
}

// touch refreshes the last accessed time by replacing the metadata record.
func (r *Registry) touch(e *entry) *Metadata {
	for {
		current := e.metadata.Load()
		next := copyOf(current)
		next.LastAccessed = r.now()
		if e.metadata.CompareAndSwap(current, next) {
			return copyOf(next)
		}
	}
}

func copyOf(metadata *Metadata) *Metadata {
	ret := *metadata
	return &ret
}

// Lookup returns the handle and metadata of a live connection and refreshes
// its last accessed time.
func (r *Registry) Lookup(id string) (*sql.DB, *Metadata, bool) {
	value, ok := r.entries.Load(id)
	if !ok {
		return nil, nil, false
	}
	e := value.(*entry)
	return e.db, r.touch(e), true
}

// CheckOwnership returns ErrNotFound for an unknown id and ErrForbidden when
// caller does not own the connection.
func (r *Registry) CheckOwnership(id, caller string) error {
	value, ok := r.entries.Load(id)
	if !ok {
		return ErrNotFound
	}
	if value.(*entry).metadata.Load().Owner != caller {
		return ErrForbidden
	}
	return nil
}

// ResolveOwned returns the handle of a connection owned by owner. Empty
// catalog or schema fall back to the connection defaults.
func (r *Registry) ResolveOwned(id, owner, catalog, schema string) (*ActiveConnection, error) {
	if err := r.CheckOwnership(id, owner); err != nil {
		return nil, err
	}
	db, metadata, ok := r.Lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	ret := &ActiveConnection{
		DB:       db,
		PluginID: metadata.PluginID,
		Catalog:  catalog,
		Schema:   schema,
		Database: metadata.Database,
	}
	if ret.Catalog == "" {
		ret.Catalog = metadata.Catalog
	}
	if ret.Schema == "" {
		ret.Schema = metadata.Schema
	}
	return ret, nil
}

// Close removes the connection and closes its handle. Close failures are
// logged; closing an unknown id does nothing.
func (r *Registry) Close(id string) {
	value, ok := r.entries.LoadAndDelete(id)
	if !ok {
		return
	}
	e := value.(*entry)
	r.closeHandle(e.metadata.Load().PluginID, e.connector, e.db)
	log.WithField("connection", id).Print("closed connection")
}

// List returns the connections of owner, oldest first.
func (r *Registry) List(owner string) []*Metadata {
	var ret []*Metadata
	r.entries.Range(func(key, value any) bool {
		if metadata := value.(*entry).metadata.Load(); metadata.Owner == owner {
			ret = append(ret, copyOf(metadata))
		}
		return true
	})
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Created.Equal(ret[j].Created) {
			return ret[i].ID < ret[j].ID
		}
		return ret[i].Created.Before(ret[j].Created)
	})
	return ret
}

// CloseAll closes every live connection.
func (r *Registry) CloseAll() {
	r.entries.Range(func(key, value any) bool {
		r.Close(key.(string))
		return true
	})
}

// NewRegistry creates a connection registry dispatching to plugins. With
// fallback set, a server version outside every declared range binds the
// newest family plugin instead of failing.
func NewRegistry(plugins *plugin.Registry, fallback bool) *Registry {
	return &Registry{
		plugins:  plugins,
		selector: &plugin.Selector{Registry: plugins, Fallback: fallback},
		now:      time.Now,
	}
}
