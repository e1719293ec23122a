package connector

import (
	"sync"
	"time"
)

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.IsZero() {
		c.current = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return c.current
}

func (c *fakeClock) advance() {
	c.Now()
	c.mu.Lock()
	c.current = c.current.Add(time.Minute)
	c.mu.Unlock()
}
