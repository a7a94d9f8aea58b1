package tmdb

import (
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	payload  json.RawMessage
	storedAt time.Time
}

// ResponseCache maps request fingerprints to raw payloads. Entries are live
// while now - storedAt < ttl; staleness is checked on read and a stale entry
// stays in place until the next successful fetch overwrites it or the
// capacity bound evicts it.
type ResponseCache struct {
	ttl     time.Duration
	clock   Clock
	entries *lru.Cache[string, cacheEntry]
}

// NewResponseCache builds a cache holding at most capacity fingerprints.
func NewResponseCache(ttl time.Duration, capacity int, clock Clock) (*ResponseCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("response cache: capacity must be positive, got %d", capacity)
	}
	if clock == nil {
		clock = systemClock{}
	}
	entries, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("response cache: %w", err)
	}
	return &ResponseCache{ttl: ttl, clock: clock, entries: entries}, nil
}

// Get returns the payload stored for fingerprint when it is still live.
func (c *ResponseCache) Get(fingerprint string) (json.RawMessage, bool) {
	entry, ok := c.entries.Get(fingerprint)
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.payload, true
}

// Put stores payload under fingerprint, replacing any previous entry.
func (c *ResponseCache) Put(fingerprint string, payload json.RawMessage) {
	c.entries.Add(fingerprint, cacheEntry{payload: payload, storedAt: c.clock.Now()})
}

// Len reports the number of stored entries, stale ones included.
func (c *ResponseCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *ResponseCache) Purge() {
	c.entries.Purge()
}
