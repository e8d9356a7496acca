package cache

import (
	"encoding/json"
	"sync"
	"time"

	"alcyxob/workout-tracker/internal/domain"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

// CalendarCache keeps serialized calendars in memory, keyed by user ID.
// Entries are dropped on every write to the user's calendar.
//
// Each user has a generation that Invalidate bumps. A reader takes the
// generation before loading from the store and fills the cache with
// SetIfCurrent, so a load that raced with a write cannot cache its stale copy.
type CalendarCache struct {
	cache *freecache.Cache
	ttl   int

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCalendarCache creates a cache of sizeMB megabytes. freecache enforces a
// 512KB minimum.
func NewCalendarCache(sizeMB int, ttl time.Duration) *CalendarCache {
	return &CalendarCache{
		cache:       freecache.NewCache(sizeMB * megabyte),
		ttl:         int(ttl.Seconds()),
		generations: map[string]uint64{},
	}
}

func cacheKey(userID string) []byte {
	return []byte("calendar::" + userID)
}

// Get returns a private copy of the cached calendar.
func (c *CalendarCache) Get(userID string) (domain.CalendarData, bool) {
	raw, err := c.cache.Get(cacheKey(userID))
	if err != nil {
		return domain.CalendarData{}, false
	}
	var cal domain.CalendarData
	if err := json.Unmarshal(raw, &cal); err != nil {
		log.Errorf("failed to unmarshal cached calendar for %s: %s", userID, err)
		c.Invalidate(userID)
		return domain.CalendarData{}, false
	}
	return domain.Normalize(cal), true
}

// Generation returns the user's current generation, to be passed to
// SetIfCurrent once the calendar has been read from the store.
func (c *CalendarCache) Generation(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID]
}

// Set caches cal unconditionally.
func (c *CalendarCache) Set(userID string, cal domain.CalendarData) {
	raw, ok := encode(userID, cal)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(userID, raw)
}

// SetIfCurrent caches cal unless the user's calendar was invalidated after
// generation was taken. It reports whether cal was cached.
func (c *CalendarCache) SetIfCurrent(userID string, generation uint64, cal domain.CalendarData) bool {
	raw, ok := encode(userID, cal)
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[userID] != generation {
		return false
	}
	return c.store(userID, raw)
}

func (c *CalendarCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++
	c.cache.Del(cacheKey(userID))
}

func encode(userID string, cal domain.CalendarData) ([]byte, bool) {
	raw, err := json.Marshal(cal)
	if err != nil {
		log.Errorf("failed to marshal calendar for %s: %s", userID, err)
		return nil, false
	}
	return raw, true
}

func (c *CalendarCache) store(userID string, raw []byte) bool {
	if err := c.cache.Set(cacheKey(userID), raw, c.ttl); err != nil {
		log.Warnf("failed to cache calendar for %s: %s", userID, err)
		return false
	}
	return true
}

// HitRate is the ratio of hits to lookups since creation.
func (c *CalendarCache) HitRate() float64 {
	return c.cache.HitRate()
}
