package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector_Select(t *testing.T) {
	type testCase struct {
		name           string
		family         string
		observed       string
		fallback       bool
		expectID       string
		expectFallback bool
		expectErr      error
	}

	testCases := []testCase{
		{name: "8.x", family: "mysql", observed: "8.0.33", expectID: "mysql-8"},
		{name: "8.x with suffix", family: "mysql", observed: "8.0.33-0ubuntu0.22.04.2", expectID: "mysql-8"},
		{name: "5.7", family: "mysql", observed: "5.7.40", expectID: "mysql-5.7"},
		{name: "5.7 log build", family: "mysql", observed: "5.7.40-log", expectID: "mysql-5.7"},
		{name: "upper bound inclusive", family: "mysql", observed: "7.9.99", expectID: "mysql-5.7"},
		{name: "below every range", family: "mysql", observed: "4.1.22", expectErr: ErrNoMatchingPlugin},
		{name: "below every range with fallback", family: "mysql", observed: "4.1.22", fallback: true, expectID: "mysql-8", expectFallback: true},
		{name: "unparsable version", family: "mysql", observed: "unknown", expectErr: ErrNoMatchingPlugin},
		{name: "unknown family", family: "db2", observed: "11.5", expectErr: ErrUnknownFamily},
		{name: "postgres banner", family: "postgres", observed: "PostgreSQL 15.3 on x86_64-pc-linux-gnu", expectID: "pg"},
	}

	registry := mysqlRegistry()
	for _, tc := range testCases {
		selector := &Selector{Registry: registry, Fallback: tc.fallback}
		selection, err := selector.Select(tc.family, tc.observed)
		if tc.expectErr != nil {
			assert.True(t, errors.Is(err, tc.expectErr), tc.name)
			assert.Nil(t, selection, tc.name)
			continue
		}
		if !assert.Nil(t, err, tc.name) {
			continue
		}
		assert.EqualValues(t, tc.expectID, selection.ID, tc.name)
		assert.EqualValues(t, tc.expectFallback, selection.Fallback, tc.name)
	}
}

func TestSelector_MostSpecific(t *testing.T) {
	registry := NewRegistry(
		newTablePlugin("generic", "pg", "3.0.0", "9.0", ""),
		newTablePlugin("pg-12", "pg", "1.0.0", "12.0", ""),
		newTablePlugin("pg-12-14", "pg", "1.0.0", "12.0", "14.99"),
		newTablePlugin("pg-12-14-new", "pg", "1.1.0", "12.0", "14.99"),
	)
	selector := &Selector{Registry: registry}

	selection, err := selector.Select("pg", "13.4")
	assert.Nil(t, err)
	assert.EqualValues(t, "pg-12-14-new", selection.ID)

	selection, err = selector.Select("pg", "15.1")
	assert.Nil(t, err)
	assert.EqualValues(t, "pg-12", selection.ID)

	selection, err = selector.Select("pg", "10.2")
	assert.Nil(t, err)
	assert.EqualValues(t, "generic", selection.ID)
}

func TestRange(t *testing.T) {
	type testCase struct {
		lower, upper string
		version      string
		expect       bool
	}

	testCases := []testCase{
		{lower: "5.7.0", upper: "7.9.99", version: "5.7.0", expect: true},
		{lower: "5.7.0", upper: "7.9.99", version: "8.0.0", expect: false},
		{lower: "8.0", upper: "", version: "42.1", expect: true},
		{lower: "", upper: "", version: "0.0.1", expect: true},
		{lower: "10", upper: "", version: "9.6.24", expect: false},
	}

	for _, tc := range testCases {
		r, err := NewRange(tc.lower, tc.upper)
		if !assert.Nil(t, err) {
			continue
		}
		v, err := ParseServerVersion(tc.version)
		assert.Nil(t, err)
		assert.EqualValues(t, tc.expect, r.Contains(v), r.String()+" "+tc.version)
	}

	_, err := NewRange("8.0", "5.7")
	assert.NotNil(t, err)
}
