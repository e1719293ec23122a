// Package driver acquires database drivers on demand: it resolves the
// artifact coordinates a family plugin needs, fetches them from a Maven style
// repository into a local store and loads them into the process.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
	"github.com/viant/dbkit/plugin"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	plugins    *plugin.Registry
	repository Repository
	store      *Store
	loader     Loader
	timeout    time.Duration
	inflight   singleflight.Group
}

// Coordinate resolves the artifact of driverVersion for family. The family
// plugins able to provide drivers are asked in turn; a plugin rejects
// versions outside its constraint.
func (s *Service) Coordinate(ctx context.Context, family, driverVersion string) (*plugin.Coordinate, error) {
	descriptors := s.plugins.Family(family)
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: %s", plugin.ErrUnknownFamily, family)
	}
	var candidates []*plugin.Descriptor
	for _, descriptor := range descriptors {
		if descriptor.Implements(plugin.Driver) {
			candidates = append(candidates, descriptor)
		}
	}
	_, ret, err := plugin.Attempt(ctx, candidates, func(ctx context.Context, candidate *plugin.Descriptor) (*plugin.Coordinate, error) {
		provider, err := plugin.As[plugin.DriverProvider](candidate)
		if err != nil {
			return nil, err
		}
		return provider.DriverCoordinate(driverVersion)
	})
	return ret, err
}

// ListAvailableVersions returns the repository versions of the family
// driver, oldest first.
func (s *Service) ListAvailableVersions(ctx context.Context, family string) ([]string, error) {
	coordinate, err := s.Coordinate(ctx, family, "")
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	versions, err := s.repository.Versions(ctx, coordinate)
	if err != nil {
		return nil, s.acquisitionError(ctx, "list", family, "", err)
	}
	sortVersions(versions)
	return versions, nil
}

// Download installs the driver version, or the plugin default when empty.
// An installed version is not fetched again; concurrent downloads of the
// same version share one fetch.
func (s *Service) Download(ctx context.Context, family, driverVersion string) (*Installed, error) {
	coordinate, err := s.Coordinate(ctx, family, driverVersion)
	if err != nil {
		return nil, err
	}
	key := family + "/" + coordinate.FileName()
	result, err, _ := s.inflight.Do(key, func() (interface{}, error) {
		return s.download(ctx, family, coordinate)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Installed), nil
}

func (s *Service) download(ctx context.Context, family string, coordinate *plugin.Coordinate) (*Installed, error) {
	if installed, err := s.installed(ctx, family, coordinate.Version); err == nil {
		return installed, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	data, err := s.repository.Fetch(ctx, coordinate)
	if err != nil {
		return nil, s.acquisitionError(ctx, "fetch", family, coordinate.Version, err)
	}
	installed, err := s.store.Put(ctx, family, coordinate.FileName(), data)
	if err != nil {
		return nil, s.acquisitionError(ctx, "store", family, coordinate.Version, err)
	}
	log.WithField("driver", coordinate.String()).Printf("installed %s (%d bytes)", installed.URL, installed.Size)
	return installed, nil
}

// ListInstalled returns the drivers of family in the local store.
func (s *Service) ListInstalled(ctx context.Context, family string) ([]*Installed, error) {
	ret, err := s.store.List(ctx, family)
	if err != nil {
		return nil, s.acquisitionError(ctx, "list installed", family, "", err)
	}
	return ret, nil
}

// Delete removes an installed driver version.
func (s *Service) Delete(ctx context.Context, family, driverVersion string) error {
	installed, err := s.installed(ctx, family, driverVersion)
	if err != nil {
		return err
	}
	if err = s.store.Delete(ctx, family, installed.FileName); err != nil {
		return s.acquisitionError(ctx, "delete", family, driverVersion, err)
	}
	log.WithField("driver", installed.FileName).Printf("deleted %s driver %s", family, driverVersion)
	return nil
}

// Load loads an installed driver version, downloading it first if needed.
func (s *Service) Load(ctx context.Context, family, driverVersion string) (*Installed, error) {
	installed, err := s.Download(ctx, family, driverVersion)
	if err != nil {
		return nil, err
	}
	if err = s.loader.Load(ctx, installed.URL); err != nil {
		return nil, s.acquisitionError(ctx, "load", family, installed.Version, err)
	}
	log.WithField("driver", installed.FileName).Printf("loaded %s driver %s", family, installed.Version)
	return installed, nil
}

func (s *Service) installed(ctx context.Context, family, driverVersion string) (*Installed, error) {
	installed, err := s.ListInstalled(ctx, family)
	if err != nil {
		return nil, err
	}
	for _, candidate := range installed {
		if candidate.Version == driverVersion {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s", ErrNotInstalled, family, driverVersion)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) acquisitionError(ctx context.Context, op, family, driverVersion string, cause error) error {
	ret := &AcquisitionError{Op: op, Family: family, Version: driverVersion, Cause: cause}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", plugin.ErrTimeout, ret)
	}
	return ret
}

// sortVersions orders semantic versions ascending; unparsable ones go last.
func sortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		left, leftErr := version.NewVersion(versions[i])
		right, rightErr := version.NewVersion(versions[j])
		switch {
		case leftErr != nil:
			return false
		case rightErr != nil:
			return true
		}
		return left.LessThan(right)
	})
}

// New creates a driver service. A nil loader opens Go plugin shared objects.
func New(plugins *plugin.Registry, repository Repository, store *Store, loader Loader, timeout time.Duration) *Service {
	if loader == nil {
		loader = SharedObjectLoader{}
	}
	return &Service{plugins: plugins, repository: repository, store: store, loader: loader, timeout: timeout}
}
