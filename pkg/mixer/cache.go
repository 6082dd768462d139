// ABOUTME: In-memory cache of encoded audio files
// ABOUTME: Maps filenames to immutable byte blobs shared by every source playing them
package mixer

import (
	"sort"
	"sync"
)

// fileCache has its own lock so stores never contend with the mix callback
type fileCache struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	bytes int
}

func newFileCache() *fileCache {
	return &fileCache{blobs: make(map[string][]byte)}
}

func (c *fileCache) has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blobs[name]
	return ok
}

func (c *fileCache) get(name string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.blobs[name]
	return data, ok
}

// put stores data unless name is already present
func (c *fileCache) put(name string, data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.blobs[name]; ok {
		return false
	}
	c.blobs[name] = data
	c.bytes += len(data)
	return true
}

func (c *fileCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blobs = make(map[string][]byte)
	c.bytes = 0
}

func (c *fileCache) names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.blobs))
	for name := range c.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *fileCache) size() (files, bytes int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blobs), c.bytes
}
