package connector

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
	"github.com/viant/dbkit/plugin/sqlite"
)

// stallingDriver holds every connection attempt until the context ends.
type stallingDriver struct{}

func (stallingDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("stalling: use OpenConnector")
}

func (stallingDriver) OpenConnector(name string) (driver.Connector, error) {
	return stallingConnector{}, nil
}

type stallingConnector struct{}

func (stallingConnector) Connect(ctx context.Context) (driver.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallingConnector) Driver() driver.Driver {
	return stallingDriver{}
}

func init() {
	sql.Register("stalling", stallingDriver{})
}

// closeFailingPlugin closes handles but always reports a failure.
type closeFailingPlugin struct {
	*base.Plugin
}

func (p *closeFailingPlugin) Close(db *sql.DB) error {
	_ = p.Plugin.Close(db)
	return errors.New("connection reset while closing")
}

func sqliteDialect() *base.Dialect {
	return &base.Dialect{DriverName: "sqlite", DSN: "${Db}", VersionQuery: "SELECT sqlite_version()"}
}

func provider(info plugin.Info, dialect *base.Dialect) plugin.Provider {
	return func() (plugin.Plugin, error) {
		return base.New(info, dialect), nil
	}
}

func newTestRegistry(fallback bool) *Registry {
	plugins := plugin.NewRegistry(
		sqlite.New,
		// tried first as the newest plugin, but its driver is missing
		provider(plugin.Info{ID: "multi-broken", Version: "2.0.0", Family: "multi", MinServerVersion: "1.0.0"},
			&base.Dialect{DriverName: "no-such-driver", DSN: "${Db}"}),
		provider(plugin.Info{ID: "multi-sqlite", Version: "1.0.0", Family: "multi", MinServerVersion: "3.0.0"}, sqliteDialect()),
		provider(plugin.Info{ID: "legacy-sqlite", Version: "1.0.0", Family: "legacy", MinServerVersion: "1.0.0", MaxServerVersion: "2.99.99"}, sqliteDialect()),
		provider(plugin.Info{ID: "down-1", Version: "1.0.0", Family: "down"}, &base.Dialect{DriverName: "no-such-driver", DSN: "${Db}"}),
		provider(plugin.Info{ID: "down-2", Version: "1.1.0", Family: "down"}, &base.Dialect{DriverName: "missing-driver", DSN: "${Db}"}),
		provider(plugin.Info{ID: "slow-stalled", Version: "2.0.0", Family: "slow"}, &base.Dialect{DriverName: "stalling", DSN: "${Db}"}),
		provider(plugin.Info{ID: "slow-sqlite", Version: "1.0.0", Family: "slow"}, sqliteDialect()),
		provider(plugin.Info{ID: "defaults-sqlite", Version: "1.0.0", Family: "defaults"}, &base.Dialect{
			DriverName: "sqlite", DSN: "${Db}", VersionQuery: "SELECT sqlite_version()",
			Defaults: base.Defaults{Host: "localhost", Port: 3306},
		}),
		func() (plugin.Plugin, error) {
			return &closeFailingPlugin{Plugin: base.New(plugin.Info{ID: "flaky-sqlite", Version: "1.0.0", Family: "flaky"}, sqliteDialect())}, nil
		},
	)
	return NewRegistry(plugins, fallback)
}

func memConfig(family, name string) *plugin.ConnectionConfig {
	return &plugin.ConnectionConfig{Family: family, Database: fmt.Sprintf("file:%s?mode=memory&cache=shared", name)}
}

func timedConfig(family, name string, timeout time.Duration) *plugin.ConnectionConfig {
	ret := memConfig(family, name)
	ret.ConnectTimeout = timeout
	return ret
}

func TestRegistry_Open(t *testing.T) {
	type testCase struct {
		name           string
		config         *plugin.ConnectionConfig
		fallback       bool
		expectPluginID string
		expectFallback bool
		expectErr      error
		expectFailures int
	}

	testCases := []testCase{
		{name: "single plugin", config: memConfig("sqlite", "open1"), expectPluginID: "sqlite"},
		{name: "first candidate rejected", config: memConfig("multi", "open2"), expectPluginID: "multi-sqlite"},
		{name: "coverage gap", config: memConfig("legacy", "open3"), expectErr: plugin.ErrNoMatchingPlugin},
		{name: "coverage gap with fallback", config: memConfig("legacy", "open4"), fallback: true, expectPluginID: "legacy-sqlite", expectFallback: true},
		{name: "all candidates rejected", config: memConfig("down", "open5"), expectErr: plugin.ErrNoCandidateSucceeded, expectFailures: 2},
		{name: "unknown family", config: memConfig("db2", "open6"), expectErr: plugin.ErrUnknownFamily},
		{name: "invalid config", config: &plugin.ConnectionConfig{Family: "sqlite"}, expectErr: plugin.ErrInvalidConfig},
		{name: "connect timeout stops fallback", config: timedConfig("slow", "open7", 50*time.Millisecond), expectErr: plugin.ErrTimeout},
	}

	ctx := context.Background()
	for _, tc := range testCases {
		registry := newTestRegistry(tc.fallback)
		metadata, err := registry.Open(ctx, tc.config, "alice")
		if tc.expectErr != nil {
			assert.True(t, errors.Is(err, tc.expectErr), "%s: %v", tc.name, err)
			var aggregate *plugin.NoCandidateError
			if errors.As(err, &aggregate) {
				assert.Len(t, aggregate.Failures, tc.expectFailures, tc.name)
			}
			assert.Empty(t, registry.List("alice"), tc.name)
			continue
		}
		if !assert.Nil(t, err, tc.name) {
			continue
		}
		assert.EqualValues(t, tc.expectPluginID, metadata.PluginID, tc.name)
		assert.EqualValues(t, tc.expectFallback, metadata.Fallback, tc.name)
		assert.NotEmpty(t, metadata.ServerVersion, tc.name)
		assert.Len(t, metadata.ID, 64, tc.name)
		registry.CloseAll()
	}
}

func TestRegistry_Identity(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(false)
	defer registry.CloseAll()

	first, err := registry.Open(ctx, memConfig("sqlite", "identity"), "alice")
	if !assert.Nil(t, err) {
		return
	}
	second, err := registry.Open(ctx, memConfig("sqlite", "identity"), "alice")
	assert.Nil(t, err)
	assert.EqualValues(t, first.ID, second.ID)
	assert.EqualValues(t, first.Created, second.Created)
	assert.Len(t, registry.List("alice"), 1)

	other, err := registry.Open(ctx, memConfig("sqlite", "identity"), "bob")
	assert.Nil(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Len(t, registry.List("alice"), 1)
	assert.Len(t, registry.List("bob"), 1)
}

func TestRegistry_ConcurrentOpen(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(false)
	defer registry.CloseAll()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			metadata, err := registry.Open(ctx, memConfig("sqlite", "concurrent"), "alice")
			if err == nil {
				ids[i] = metadata.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.EqualValues(t, ids[0], id)
	}
	assert.Len(t, registry.List("alice"), 1)
}

func TestRegistry_Ownership(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(false)
	defer registry.CloseAll()

	metadata, err := registry.Open(ctx, memConfig("sqlite", "ownership"), "alice")
	if !assert.Nil(t, err) {
		return
	}

	type testCase struct {
		name      string
		id        string
		caller    string
		expectErr error
	}

	testCases := []testCase{
		{name: "owner", id: metadata.ID, caller: "alice"},
		{name: "other owner", id: metadata.ID, caller: "bob", expectErr: ErrForbidden},
		{name: "unknown id", id: "missing", caller: "alice", expectErr: ErrNotFound},
	}

	for _, tc := range testCases {
		err := registry.CheckOwnership(tc.id, tc.caller)
		assert.EqualValues(t, tc.expectErr, err, tc.name)

		active, err := registry.ResolveOwned(tc.id, tc.caller, "", "")
		if tc.expectErr != nil {
			assert.True(t, errors.Is(err, tc.expectErr), tc.name)
			assert.Nil(t, active, tc.name)
			continue
		}
		if assert.Nil(t, err, tc.name) {
			assert.NotNil(t, active.DB, tc.name)
			assert.EqualValues(t, "sqlite", active.PluginID, tc.name)
			assert.Nil(t, active.DB.PingContext(ctx), tc.name)
		}
	}

	active, err := registry.ResolveOwned(metadata.ID, "alice", "main", "temp")
	assert.Nil(t, err)
	assert.EqualValues(t, "main", active.Catalog)
	assert.EqualValues(t, "temp", active.Schema)
}

func TestRegistry_LookupAndClose(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(false)
	clock := &fakeClock{}
	registry.now = clock.Now

	metadata, err := registry.Open(ctx, memConfig("sqlite", "lookup"), "alice")
	if !assert.Nil(t, err) {
		return
	}
	clock.advance()
	db, found, ok := registry.Lookup(metadata.ID)
	assert.True(t, ok)
	if assert.NotNil(t, db) {
		assert.Nil(t, db.PingContext(ctx))
	}
	assert.True(t, found.LastAccessed.After(metadata.LastAccessed))
	assert.EqualValues(t, metadata.Created, found.Created)

	clock.advance()
	active, err := registry.ResolveOwned(metadata.ID, "alice", "", "")
	assert.Nil(t, err)
	assert.Same(t, db, active.DB)
	_, touched, _ := registry.Lookup(metadata.ID)
	assert.True(t, touched.LastAccessed.After(found.LastAccessed))

	registry.Close("unknown")
	registry.Close(metadata.ID)
	db, _, ok = registry.Lookup(metadata.ID)
	assert.False(t, ok)
	assert.Nil(t, db)
	assert.EqualValues(t, ErrNotFound, registry.CheckOwnership(metadata.ID, "alice"))
	registry.Close(metadata.ID)
}

func TestRegistry_CloseFailure(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(false)
	hook := logtest.NewGlobal()
	defer hook.Reset()

	metadata, err := registry.Open(ctx, memConfig("flaky", "closefailure"), "alice")
	if !assert.Nil(t, err) {
		return
	}
	assert.EqualValues(t, "flaky-sqlite", metadata.PluginID)

	registry.Close(metadata.ID)
	_, _, ok := registry.Lookup(metadata.ID)
	assert.False(t, ok)
	assert.Empty(t, registry.List("alice"))
	assert.EqualValues(t, ErrNotFound, registry.CheckOwnership(metadata.ID, "alice"))

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "failed to close") {
			warned = true
			assert.EqualValues(t, "flaky-sqlite", entry.Data["plugin"])
		}
	}
	assert.True(t, warned)

	reopened, err := registry.Open(ctx, memConfig("flaky", "closefailure"), "alice")
	assert.Nil(t, err)
	assert.EqualValues(t, metadata.ID, reopened.ID)
	registry.CloseAll()
}

func TestRegistry_IdentityUsesDefaults(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(false)
	defer registry.CloseAll()

	implicit, err := registry.Open(ctx, memConfig("defaults", "resolved"), "alice")
	if !assert.Nil(t, err) {
		return
	}
	assert.EqualValues(t, "localhost", implicit.Host)
	assert.EqualValues(t, 3306, implicit.Port)

	config := memConfig("defaults", "resolved")
	config.Host, config.Port = "localhost", 3306
	explicit, err := registry.Open(ctx, config, "alice")
	assert.Nil(t, err)
	assert.EqualValues(t, implicit.ID, explicit.ID)
	assert.Len(t, registry.List("alice"), 1)
}

func TestConnectionID(t *testing.T) {
	id := ConnectionID("alice", "mysql", "localhost", 3306, "db", "root", "mysql-8")
	assert.EqualValues(t, id, ConnectionID("alice", "mysql", "localhost", 3306, "db", "root", "mysql-8"))
	assert.NotEqual(t, id, ConnectionID("bob", "mysql", "localhost", 3306, "db", "root", "mysql-8"))
	assert.NotEqual(t, id, ConnectionID("alice", "mysql", "localhost", 3306, "db", "root", "mysql-5.7"))
	assert.NotEqual(t, ConnectionID("ab", "c", "", 0, "", "", ""), ConnectionID("a", "bc", "", 0, "", "", ""))
}
