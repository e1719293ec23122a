package query

import (
	"container/list"
	"reflect"
	"sync"
)

// recordTypeCache is a concurrency-safe LRU of record types keyed by
// connection handle and projection. The most recently used entry is kept at
// the front of the list.
type recordTypeCache struct {
	mu       sync.Mutex
	order    *list.List
	entries  map[string]*list.Element
	capacity int
}

type cacheEntry struct {
	key        string
	recordType reflect.Type
}

func newRecordTypeCache(capacity int) *recordTypeCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &recordTypeCache{
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
		capacity: capacity,
	}
}

// Get returns the record type for key and marks it most recently used.
func (c *recordTypeCache) Get(key string) (reflect.Type, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	element, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*cacheEntry).recordType, true
}

// Put stores recordType under key, evicting the least recently used entry
// once capacity is exceeded.
func (c *recordTypeCache) Put(key string, recordType reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if element, ok := c.entries[key]; ok {
		c.order.MoveToFront(element)
		element.Value.(*cacheEntry).recordType = recordType
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, recordType: recordType})
	if c.order.Len() <= c.capacity {
		return
	}
	if oldest := c.order.Back(); oldest != nil {
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached record types.
func (c *recordTypeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
