package resolve

import (
	"github.com/anchore/cwe-lookup/pkg/weakness"
)

// Cache maps canonical CVE identifiers to the weakness they resolved to. It lives for a single resolution run
// and is never persisted. Only successful lookups are stored.
type Cache struct {
	entries map[string]weakness.ID
	hits    int
	misses  int
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]weakness.ID)}
}

func (c *Cache) Get(id string) (weakness.ID, bool) {
	w, ok := c.entries[id]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return w, ok
}

func (c *Cache) Put(id string, w weakness.ID) {
	c.entries[id] = w
}

func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns the number of lookups that were served from (and missed) the cache.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
