// Package service is the caller facing API: it wires plugin discovery, the
// connection registry, capability dispatch and driver acquisition.
package service

import (
	"context"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/viant/dbkit/auth"
	"github.com/viant/dbkit/db/connector"
	"github.com/viant/dbkit/db/exec"
	"github.com/viant/dbkit/db/meta"
	"github.com/viant/dbkit/driver"
	"github.com/viant/dbkit/plugin"
)

type Service struct {
	config      *Config
	plugins     *plugin.Registry
	connections *connector.Registry
	auth        *auth.Service
	meta        *meta.Service
	exec        *exec.Service
	drivers     *driver.Service
}

// OpenConnection opens (or reuses) a connection owned by the caller.
func (s *Service) OpenConnection(ctx context.Context, config *plugin.ConnectionConfig) (*connector.Metadata, error) {
	owner, err := s.auth.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.connections.Open(ctx, config, owner)
}

// ResolveOwnedConnection returns the caller owned connection handle.
func (s *Service) ResolveOwnedConnection(ctx context.Context, id, catalog, schema string) (*connector.ActiveConnection, error) {
	owner, err := s.auth.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.connections.ResolveOwned(id, owner, catalog, schema)
}

// ListConnections returns the caller connections.
func (s *Service) ListConnections(ctx context.Context) ([]*connector.Metadata, error) {
	owner, err := s.auth.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.connections.List(owner), nil
}

// CloseConnection closes a caller owned connection. Unknown ids are ignored;
// a connection of another owner yields connector.ErrForbidden.
func (s *Service) CloseConnection(ctx context.Context, id string) error {
	owner, err := s.auth.Owner(ctx)
	if err != nil {
		return err
	}
	switch err = s.connections.CheckOwnership(id, owner); err {
	case nil:
		s.connections.Close(id)
		return nil
	case connector.ErrNotFound:
		return nil
	}
	return err
}

// ListPlugins returns the plugins of family, newest first, or every
// discovered plugin when family is empty.
func (s *Service) ListPlugins(family string) []*plugin.Info {
	descriptors := s.plugins.All()
	if family != "" {
		descriptors = s.plugins.Family(family)
	}
	return lo.Map(descriptors, func(descriptor *plugin.Descriptor, _ int) *plugin.Info {
		info := descriptor.Info
		return &info
	})
}

// ListDrivers returns the available repository versions of a family driver
// together with the installed ones.
func (s *Service) ListDrivers(ctx context.Context, family string) ([]string, []*driver.Installed, error) {
	available, err := s.drivers.ListAvailableVersions(ctx, family)
	if err != nil {
		return nil, nil, err
	}
	installed, err := s.drivers.ListInstalled(ctx, family)
	return available, installed, err
}

func (s *Service) DownloadDriver(ctx context.Context, family, version string) (*driver.Installed, error) {
	return s.drivers.Download(ctx, family, version)
}

func (s *Service) Meta() *meta.Service {
	return s.meta
}

func (s *Service) Exec() *exec.Service {
	return s.exec
}

func (s *Service) Drivers() *driver.Service {
	return s.drivers
}

func (s *Service) Plugins() *plugin.Registry {
	return s.plugins
}

// Close closes every live connection.
func (s *Service) Close() {
	s.connections.CloseAll()
}

// New creates the service with the given plugin providers and a Maven driver
// repository derived from config.
func New(config *Config, providers ...plugin.Provider) *Service {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	repository := driver.NewMavenRepository(config.Driver.RepositoryURL)
	return NewWithRepository(config, repository, nil, providers...)
}

// NewWithRepository creates the service with an explicit driver repository
// and loader.
func NewWithRepository(config *Config, repository driver.Repository, loader driver.Loader, providers ...plugin.Provider) *Service {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	plugins := plugin.NewRegistry(providers...)
	authService := auth.New(config.Policy)
	connections := connector.NewRegistry(plugins, config.Fallback)
	store := driver.NewStore(config.Driver.StoreURL)
	ret := &Service{
		config:      config,
		plugins:     plugins,
		connections: connections,
		auth:        authService,
		meta:        meta.New(connections, authService),
		exec:        exec.New(connections, authService),
		drivers:     driver.New(plugins, repository, store, loader, config.Driver.Timeout()),
	}
	log.Printf("dbkit: %d plugins, driver store %s", plugins.Count(), config.Driver.StoreURL)
	return ret
}
