package plugin

import (
	"context"
	"database/sql"
	"errors"
)

type fakePlugin struct {
	info Info
}

func (p *fakePlugin) Info() *Info { return &p.info }

type fakeTablePlugin struct {
	fakePlugin
}

func (p *fakeTablePlugin) ListTables(ctx context.Context, db *sql.DB, scope Scope) ([]Table, error) {
	return []Table{{Name: p.info.ID}}, nil
}

type fakeConnectPlugin struct {
	fakeTablePlugin
	err error
}

func (p *fakeConnectPlugin) Connect(ctx context.Context, config *ConnectionConfig) (*sql.DB, error) {
	return nil, p.err
}

func (p *fakeConnectPlugin) ServerVersion(ctx context.Context, db *sql.DB) (string, error) {
	return p.info.MinServerVersion, nil
}

func (p *fakeConnectPlugin) Close(db *sql.DB) error { return nil }

func provide(p Plugin) Provider {
	return func() (Plugin, error) { return p, nil }
}

func newTablePlugin(id, family, version, lower, upper string) Provider {
	return provide(&fakeTablePlugin{fakePlugin{info: Info{
		ID:               id,
		Name:             id,
		Version:          version,
		Family:           family,
		MinServerVersion: lower,
		MaxServerVersion: upper,
	}}})
}

func mysqlRegistry() *Registry {
	return NewRegistry(
		newTablePlugin("mysql-5.7", "mysql", "1.0.0", "5.7.0", "7.9.99"),
		newTablePlugin("mysql-8", "mysql", "1.0.0", "8.0.0", ""),
		newTablePlugin("pg", "postgres", "1.2.0", "9.0", ""),
	)
}

var errBoom = errors.New("boom")
