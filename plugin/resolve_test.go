package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	registry := mysqlRegistry()

	lister, err := Resolve[TableLister](registry, "mysql-8")
	if assert.Nil(t, err) && assert.NotNil(t, lister) {
		tables, err := lister.ListTables(context.Background(), nil, Scope{})
		assert.Nil(t, err)
		assert.EqualValues(t, "mysql-8", tables[0].Name)
	}

	fetcher, err := Resolve[DDLFetcher](registry, "mysql-8")
	assert.Nil(t, fetcher)
	assert.True(t, errors.Is(err, ErrCapabilityUnsupported))
	var capabilityErr *CapabilityError
	if assert.True(t, errors.As(err, &capabilityErr)) {
		assert.EqualValues(t, DDL, capabilityErr.Capability)
	}

	_, err = Resolve[TableLister](registry, "mysql-3")
	assert.True(t, errors.Is(err, ErrPluginNotFound))

	_, err = Resolve[Plugin](registry, "mysql-8")
	assert.NotNil(t, err)
}

func TestResolveVersion(t *testing.T) {
	selector := &Selector{Registry: mysqlRegistry()}

	lister, err := ResolveVersion[TableLister](selector, "mysql", "5.7.40")
	if assert.Nil(t, err) {
		tables, _ := lister.ListTables(context.Background(), nil, Scope{})
		assert.EqualValues(t, "mysql-5.7", tables[0].Name)
	}

	_, err = ResolveVersion[TableLister](selector, "mysql", "3.23")
	assert.True(t, errors.Is(err, ErrNoMatchingPlugin))

	_, err = ResolveVersion[CommandExecutor](selector, "mysql", "8.0.1")
	assert.True(t, errors.Is(err, ErrCapabilityUnsupported))
}
