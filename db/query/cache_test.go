package query

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordTypeCacheLRU(t *testing.T) {
	type testCase struct {
		capacity  int
		keys      []string
		wantExist map[string]bool
		wantLen   int
	}

	testCases := []testCase{
		{
			capacity:  2,
			keys:      []string{"a", "b", "a", "c"}, // "a" is touched again so "b" is evicted
			wantExist: map[string]bool{"a": true, "b": false, "c": true},
			wantLen:   2,
		},
		{
			capacity:  1,
			keys:      []string{"x", "y"},
			wantExist: map[string]bool{"x": false, "y": true},
			wantLen:   1,
		},
		{
			capacity:  0,
			keys:      []string{"x"},
			wantExist: map[string]bool{"x": true},
			wantLen:   1,
		},
	}

	dummyType := reflect.TypeOf(struct{}{})

	for _, tc := range testCases {
		c := newRecordTypeCache(tc.capacity)
		for _, k := range tc.keys {
			if _, ok := c.Get(k); !ok {
				c.Put(k, dummyType)
			}
		}
		assert.EqualValues(t, tc.wantLen, c.Len())
		for key, expected := range tc.wantExist {
			_, ok := c.Get(key)
			assert.EqualValues(t, expected, ok, "unexpected cache presence for key %s", key)
		}
	}
}

func TestRecordTypeCache_Replace(t *testing.T) {
	c := newRecordTypeCache(2)
	c.Put("a", reflect.TypeOf(1))
	c.Put("a", reflect.TypeOf(""))
	actual, ok := c.Get("a")
	assert.True(t, ok)
	assert.EqualValues(t, reflect.TypeOf(""), actual)
	assert.EqualValues(t, 1, c.Len())
}
