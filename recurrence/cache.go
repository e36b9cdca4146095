package recurrence

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"sync"
	"time"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
)

// cacheEntry holds one cached expansion.
type cacheEntry struct {
	occurrences []event.Occurrence
	expiresAt   time.Time
	accessedAt  time.Time
}

// Cache memoizes OccurrencesBetween results. Keys cover every field that
// influences expansion, so a stale event definition can never satisfy a
// lookup for the edited one.
type Cache struct {
	entries         map[string]*cacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// CacheConfig holds configuration for the expansion cache.
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
}

// DefaultCacheConfig provides sensible defaults for expansion caching.
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewCache creates an expansion cache and starts its cleanup goroutine.
func NewCache(config CacheConfig) *Cache {
	cache := &Cache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// generateCacheKey hashes the full event definition plus the query range.
func (c *Cache) generateCacheKey(ev *event.BaseEvent, from, to civil.Date) string {
	hasher := sha256.New()

	fmt.Fprintf(hasher, "%s|%s|%s|%s", ev.ID, ev.OriginDate, from, to)
	hashContent(hasher, ev.Content)

	if r := ev.Rule; r != nil {
		fmt.Fprintf(hasher, "|%s/%d/%d/%d", r.Frequency, r.Interval, r.DayOfMonth, r.EndAfterCount)
		for _, d := range r.DaysOfWeek {
			fmt.Fprintf(hasher, ",%d", int(d))
		}
		if r.EndDate != nil {
			fmt.Fprintf(hasher, "|until=%s", *r.EndDate)
		}
	}

	for _, exc := range ev.Exceptions {
		fmt.Fprintf(hasher, "|exc=%s/%t", exc.OriginalDate, exc.IsDeleted)
		if exc.Override != nil {
			fmt.Fprintf(hasher, "/%s", exc.Override.Date)
			hashContent(hasher, exc.Override.Content)
		}
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func hashContent(h hash.Hash, content event.Content) {
	fmt.Fprintf(h, "|%s|%s|%s|%t", content.Title, content.Notes, content.Color, content.AllDay)
}

// Get retrieves a cached expansion if it exists and hasn't expired.
func (c *Cache) Get(ev *event.BaseEvent, from, to civil.Date) ([]event.Occurrence, bool) {
	key := c.generateCacheKey(ev, from, to)

	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.accessedAt = now
	c.mutex.Unlock()

	// Callers own the returned slice; the cached backing array must not
	// leak out.
	occurrences := make([]event.Occurrence, len(entry.occurrences))
	copy(occurrences, entry.occurrences)
	return occurrences, true
}

// Set stores an expansion result in the cache.
func (c *Cache) Set(ev *event.BaseEvent, from, to civil.Date, occurrences []event.Occurrence) {
	key := c.generateCacheKey(ev, from, to)
	now := time.Now()

	entry := &cacheEntry{
		occurrences: occurrences,
		expiresAt:   now.Add(c.ttl),
		accessedAt:  now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// Len returns the number of live entries, expired ones included.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// cleanup removes expired entries and the least recently accessed entries
// when over the limit. Callers must hold the write lock.
func (c *Cache) cleanup() {
	now := time.Now()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) > c.maxEntries {
		type keyAccess struct {
			key        string
			accessedAt time.Time
		}

		var keyAccessList []keyAccess
		for key, entry := range c.entries {
			keyAccessList = append(keyAccessList, keyAccess{
				key:        key,
				accessedAt: entry.accessedAt,
			})
		}

		// Sort by access time (oldest first)
		for i := 0; i < len(keyAccessList)-1; i++ {
			for j := i + 1; j < len(keyAccessList); j++ {
				if keyAccessList[i].accessedAt.After(keyAccessList[j].accessedAt) {
					keyAccessList[i], keyAccessList[j] = keyAccessList[j], keyAccessList[i]
				}
			}
		}

		entriesToRemove := len(c.entries) - c.maxEntries
		for i := 0; i < entriesToRemove && i < len(keyAccessList); i++ {
			delete(c.entries, keyAccessList[i].key)
		}
	}
}

// cleanupLoop runs periodic cleanup until Stop.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Stop halts the cleanup goroutine and clears the cache.
func (c *Cache) Stop() {
	close(c.stopCleanup)
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}
