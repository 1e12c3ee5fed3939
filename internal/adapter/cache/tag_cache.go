package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"tagchain/internal/port"
)

// TagCache is a bounded LRU of tagger output keyed by processor and input text.
type TagCache struct {
	mu      sync.RWMutex
	entries map[string][]string
	order   []string
	maxSize int
	hits    int
	misses  int
}

func NewTagCache(maxSize int) *TagCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &TagCache{
		entries: make(map[string][]string),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func cacheKey(processor, text string) string {
	h := sha256.New()
	h.Write([]byte(processor))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *TagCache) Get(processor, text string) ([]string, bool) {
	key := cacheKey(processor, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	lines, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.moveToEnd(key)
	return append([]string(nil), lines...), true
}

func (c *TagCache) Put(processor, text string, lines []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(processor, text)
	stored := append([]string{}, lines...)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = stored
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = stored
	c.order = append(c.order, key)
}

func (c *TagCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts since creation.
func (c *TagCache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *TagCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *TagCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *TagCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedTagger serves repeated inputs from a TagCache. Failed calls are
// not cached.
type CachedTagger struct {
	tagger port.Tagger
	cache  *TagCache
}

func NewCachedTagger(tagger port.Tagger, cache *TagCache) *CachedTagger {
	return &CachedTagger{
		tagger: tagger,
		cache:  cache,
	}
}

func (t *CachedTagger) Name() string {
	return t.tagger.Name()
}

func (t *CachedTagger) Tag(ctx context.Context, text string) ([]string, error) {
	if lines, hit := t.cache.Get(t.tagger.Name(), text); hit {
		return lines, nil
	}

	lines, err := t.tagger.Tag(ctx, text)
	if err != nil {
		return nil, err
	}

	t.cache.Put(t.tagger.Name(), text, lines)
	return lines, nil
}
