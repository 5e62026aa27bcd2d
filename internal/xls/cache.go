package xls

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

const defaultCacheSessions = 256

// CacheKey fingerprints one parse configuration. source should identify the
// uploaded content, not only its file name.
func CacheKey(source, sheet, column string, start, end int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s|%d-%d", source, sheet, column, start, end)))
	return hex.EncodeToString(sum[:])
}

// SourceID combines a file name with a digest of its bytes.
func SourceID(name string, data []byte) string {
	sum := sha1.Sum(data)
	return name + "@" + hex.EncodeToString(sum[:8])
}

type cacheEntry struct {
	key     string
	records []entity.Record
	touched time.Time
}

// Cache keeps the last parse result per session. A session holds exactly one
// configuration: loading a different key replaces it. Parses run outside the
// lock; concurrent loads of the same session and key share one parse.
type Cache struct {
	flight      singleflight.Group
	mu          sync.Mutex
	entries     map[string]*cacheEntry
	maxSessions int
	now         func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries:     make(map[string]*cacheEntry),
		maxSessions: defaultCacheSessions,
		now:         time.Now,
	}
}

// Load returns the cached records for session when key matches and refresh is
// false. Otherwise it calls compute and stores the result. The bool reports a hit.
// A failed compute clears the session.
func (c *Cache) Load(session, key string, refresh bool, compute func() ([]entity.Record, error)) ([]entity.Record, bool, error) {
	if !refresh {
		c.mu.Lock()
		if e, ok := c.entries[session]; ok && e.key == key {
			e.touched = c.now()
			records := e.records
			c.mu.Unlock()
			return records, true, nil
		}
		c.mu.Unlock()
	}

	v, err, _ := c.flight.Do(session+"\x00"+key, func() (any, error) {
		records, err := compute()
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			delete(c.entries, session)
			return nil, err
		}
		c.entries[session] = &cacheEntry{key: key, records: records, touched: c.now()}
		c.evict()
		return records, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]entity.Record), false, nil
}

// Key returns the configuration currently held for session.
func (c *Cache) Key(session string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[session]
	if !ok {
		return "", false
	}
	return e.key, true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict drops the least recently touched session over capacity; caller holds mu.
func (c *Cache) evict() {
	for len(c.entries) > c.maxSessions {
		var oldest string
		var oldestAt time.Time
		first := true
		for s, e := range c.entries {
			if first || e.touched.Before(oldestAt) {
				oldest, oldestAt, first = s, e.touched, false
			}
		}
		delete(c.entries, oldest)
	}
}
