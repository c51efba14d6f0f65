package dna

import (
	"fmt"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/pitch-edge/internal/models"
)

// Cache holds assembled TeamDNA bundles keyed by (team key, last
// observed profile update). A change in the stored updated_at produces a
// different key, so staleness invalidates naturally without an explicit
// flush. TTL is capped at 10 minutes.
type Cache struct {
	store *cache.Cache
	ttl   time.Duration
	hits  atomic.Uint64
	miss  atomic.Uint64
}

const maxCacheTTL = 10 * time.Minute

// NewCache creates a DNA cache with the given TTL (clamped to 10 min)
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 || ttl > maxCacheTTL {
		ttl = maxCacheTTL
	}
	return &Cache{
		store: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

func cacheKey(key models.TeamKey, updatedAt time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%d", key.Name, key.League, key.Season, updatedAt.UnixNano())
}

// Get returns the cached bundle for the key as of updatedAt, or nil
func (c *Cache) Get(key models.TeamKey, updatedAt time.Time) *models.TeamDNA {
	if v, found := c.store.Get(cacheKey(key, updatedAt)); found {
		c.hits.Add(1)
		if dna, ok := v.(*models.TeamDNA); ok {
			return dna
		}
	}
	c.miss.Add(1)
	return nil
}

// Set stores an assembled bundle under the profile stamp used for Get
func (c *Cache) Set(key models.TeamKey, updatedAt time.Time, dna *models.TeamDNA) {
	c.store.Set(cacheKey(key, updatedAt), dna, c.ttl)
}

// Stats reports hit/miss counters
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.miss.Load()
}
