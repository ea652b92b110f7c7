package suggest

import (
	"strings"
	"sync"
	"time"

	"stockcast/pkg/stockcast"
)

type entry struct {
	candidates []stockcast.Candidate
	exp        time.Time
}

// cache holds successful lookups per normalized query. Lookups run inside
// tea.Cmd goroutines, so access is locked.
type cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[string]entry
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl, now: time.Now, m: make(map[string]entry)}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (c *cache) get(query string) ([]stockcast.Candidate, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	key := cacheKey(query)
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.candidates, true
}

func (c *cache) set(query string, candidates []stockcast.Candidate) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.m[cacheKey(query)] = entry{candidates: candidates, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
