package inmemory

import (
	"sync"
	"time"

	progressdomain "habit-rooms-go/internal/domain/progress"
)

// ProgressCache holds per-day progress totals. Entries expire after ttl and
// are all dropped by MarkDirty. A Set computed under an older generation is
// discarded so a read racing an invalidation cannot store stale totals.
type ProgressCache struct {
	mu         sync.RWMutex
	items      map[string]progressItem
	generation uint64
	ttl        time.Duration
	now        func() time.Time
}

type progressItem struct {
	value     progressdomain.Totals
	expiresAt time.Time
}

func NewProgressCache(ttl time.Duration) *ProgressCache {
	return &ProgressCache{
		items: make(map[string]progressItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *ProgressCache) Get(key string) (progressdomain.Totals, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return progressdomain.Totals{}, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[key]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return progressdomain.Totals{}, false
	}

	return item.value, true
}

func (c *ProgressCache) Set(key string, generation uint64, totals progressdomain.Totals) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	if generation == c.generation {
		c.items[key] = progressItem{
			value:     totals,
			expiresAt: c.now().Add(c.ttl),
		}
	}
	c.mu.Unlock()
}

func (c *ProgressCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *ProgressCache) MarkDirty() {
	c.mu.Lock()
	c.generation++
	c.items = make(map[string]progressItem)
	c.mu.Unlock()
}

func (c *ProgressCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
