package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	_ "github.com/viant/afs/mem"
	"github.com/viant/dbkit/auth"
	"github.com/viant/dbkit/db/connector"
	"github.com/viant/dbkit/db/exec"
	"github.com/viant/dbkit/db/meta"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/builtin"
	"github.com/viant/dbkit/policy"
	"golang.org/x/oauth2"
)

func tokenFor(email string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, _ := json.Marshal(map[string]interface{}{"sub": email, "email": email})
	return fmt.Sprintf("%s.%s.", header, base64.RawURLEncoding.EncodeToString(payload))
}

func newTestService(name string) *Service {
	config := &Config{
		Policy: &policy.Policy{Oauth2Config: &oauth2.Config{ClientID: "dbkit"}},
		Driver: &DriverConfig{
			RepositoryURL: "mem://localhost/" + name + "/repo",
			StoreURL:      "mem://localhost/" + name + "/drivers",
		},
	}
	return New(config, builtin.Providers()...)
}

func sqliteConfig(name string) *plugin.ConnectionConfig {
	return &plugin.ConnectionConfig{Family: "sqlite", Database: fmt.Sprintf("file:%s?mode=memory&cache=shared", name)}
}

func TestService_Connections(t *testing.T) {
	srv := newTestService("connections")
	defer srv.Close()
	alice := auth.WithToken(context.Background(), tokenFor("alice@example.com"))
	bob := auth.WithToken(context.Background(), tokenFor("bob@example.com"))

	metadata, err := srv.OpenConnection(alice, sqliteConfig("svc1"))
	if !assert.Nil(t, err) {
		return
	}
	assert.EqualValues(t, "alice@example.com", metadata.Owner)
	assert.EqualValues(t, "sqlite", metadata.PluginID)

	again, err := srv.OpenConnection(alice, sqliteConfig("svc1"))
	assert.Nil(t, err)
	assert.EqualValues(t, metadata.ID, again.ID)

	_, err = srv.OpenConnection(context.Background(), sqliteConfig("svc1"))
	assert.True(t, errors.Is(err, auth.ErrMissingToken))

	listed, err := srv.ListConnections(alice)
	assert.Nil(t, err)
	assert.Len(t, listed, 1)
	listed, err = srv.ListConnections(bob)
	assert.Nil(t, err)
	assert.Empty(t, listed)

	_, err = srv.ResolveOwnedConnection(bob, metadata.ID, "", "")
	assert.True(t, errors.Is(err, connector.ErrForbidden))
	active, err := srv.ResolveOwnedConnection(alice, metadata.ID, "", "")
	assert.Nil(t, err)
	assert.NotNil(t, active.DB)

	assert.True(t, errors.Is(srv.CloseConnection(bob, metadata.ID), connector.ErrForbidden))
	assert.Nil(t, srv.CloseConnection(alice, metadata.ID))
	assert.Nil(t, srv.CloseConnection(alice, metadata.ID))
	listed, _ = srv.ListConnections(alice)
	assert.Empty(t, listed)
}

func TestService_ExecAndMeta(t *testing.T) {
	srv := newTestService("exec")
	defer srv.Close()
	ctx := auth.WithToken(context.Background(), tokenFor("alice@example.com"))
	metadata, err := srv.OpenConnection(ctx, sqliteConfig("svc2"))
	if !assert.Nil(t, err) {
		return
	}
	_, err = srv.Exec().Execute(ctx, &exec.Input{Connection: metadata.ID, Command: "CREATE TABLE orders(id INTEGER PRIMARY KEY, total REAL)"})
	assert.Nil(t, err)
	ddl, err := srv.Meta().FetchDDL(ctx, &meta.DDLInput{Input: meta.Input{Connection: metadata.ID}, Name: "orders"})
	assert.Nil(t, err)
	assert.EqualValues(t, "CREATE TABLE orders(id INTEGER PRIMARY KEY, total REAL)", ddl)

	result, err := srv.Exec().Execute(ctx, &exec.Input{Connection: metadata.ID, Command: "INSERT INTO orders(id, total) VALUES(?, ?)", Parameters: []interface{}{1, 9.5}})
	assert.Nil(t, err)
	assert.EqualValues(t, 1, result.RowsAffected)
}

func TestService_ListPlugins(t *testing.T) {
	type testCase struct {
		name      string
		family    string
		expectIDs []string
	}

	testCases := []testCase{
		{name: "single family", family: "sqlite", expectIDs: []string{"sqlite"}},
		{name: "newest first", family: "mysql", expectIDs: []string{"mysql-8", "mysql-5.7"}},
		{name: "unknown family", family: "db2"},
	}

	srv := newTestService("plugins")
	all := srv.ListPlugins("")
	assert.Len(t, all, srv.Plugins().Count())
	for _, tc := range testCases {
		var ids []string
		for _, info := range srv.ListPlugins(tc.family) {
			ids = append(ids, info.ID)
		}
		assert.EqualValues(t, tc.expectIDs, ids, tc.name)
	}
}

func TestConfig_LoadEnv(t *testing.T) {
	type testCase struct {
		name          string
		env           map[string]string
		expectTimeout int
		expectStore   string
		expectFallbk  bool
	}

	testCases := []testCase{
		{name: "defaults", expectTimeout: 300, expectStore: "mem://localhost/store"},
		{name: "overrides", env: map[string]string{
			"DBKIT_DRIVER_TIMEOUT_SECONDS": "30",
			"DBKIT_DRIVER_STORE":           "mem://localhost/other",
			"DBKIT_PLUGIN_FALLBACK":        "true",
		}, expectTimeout: 30, expectStore: "mem://localhost/other", expectFallbk: true},
		{name: "invalid timeout", env: map[string]string{"DBKIT_DRIVER_TIMEOUT_SECONDS": "soon"}, expectTimeout: 300, expectStore: "mem://localhost/store"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"DBKIT_DRIVER_TIMEOUT_SECONDS", "DBKIT_DRIVER_STORE", "DBKIT_PLUGIN_FALLBACK", "DBKIT_DRIVER_REPOSITORY"} {
				t.Setenv(key, tc.env[key])
			}
			config := &Config{Driver: &DriverConfig{StoreURL: "mem://localhost/store"}}
			config.Init()
			config.LoadEnv("testdata/missing.env")
			assert.EqualValues(t, tc.expectTimeout, config.Driver.TimeoutSec)
			assert.EqualValues(t, tc.expectStore, config.Driver.StoreURL)
			assert.EqualValues(t, tc.expectFallbk, config.Fallback)
		})
	}
}
