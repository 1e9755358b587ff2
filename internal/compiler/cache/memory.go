package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	defaultMaxEntries = 100
	defaultMaxBytes   = 64 * 1024 * 1024
)

type memoryEntry struct {
	fingerprint string
	artifact    Artifact
	expiresAt   time.Time
}

// MemoryCache is an in-process LRU artifact cache. It is bounded both
// by entry count and by total bytecode bytes; the byte budget plus the
// optional TTL stand in for soft-reference reclamation, so entries may
// disappear at any time.
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List
	bytes      int64
	maxEntries int
	maxBytes   int64
	ttl        time.Duration
}

// NewMemoryCache creates an LRU cache. Zero values select the defaults;
// a zero ttl disables expiry.
func NewMemoryCache(maxEntries int, maxBytes int64, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &MemoryCache{
		items:      make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ttl:        ttl,
	}
}

// Get returns the artifact for fingerprint if present and fresh.
func (c *MemoryCache) Get(_ context.Context, fingerprint string) (Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[fingerprint]
	if !ok {
		return Artifact{}, false
	}
	entry := elem.Value.(*memoryEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.removeElement(elem)
		return Artifact{}, false
	}
	c.order.MoveToFront(elem)
	return entry.artifact, true
}

// Put stores the artifact, evicting least-recently-used entries until
// both bounds hold. Oversized artifacts are simply not cached.
func (c *MemoryCache) Put(_ context.Context, fingerprint string, artifact Artifact) {
	size := int64(len(artifact.Bytecode))
	if size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	exp := time.Time{}
	if c.ttl > 0 {
		exp = time.Now().Add(c.ttl)
	}

	if elem, ok := c.items[fingerprint]; ok {
		entry := elem.Value.(*memoryEntry)
		c.bytes += size - int64(len(entry.artifact.Bytecode))
		entry.artifact = artifact
		entry.expiresAt = exp
		c.order.MoveToFront(elem)
	} else {
		entry := &memoryEntry{fingerprint: fingerprint, artifact: artifact, expiresAt: exp}
		c.items[fingerprint] = c.order.PushFront(entry)
		c.bytes += size
	}

	for len(c.items) > c.maxEntries || c.bytes > c.maxBytes {
		if !c.evictOldest() {
			break
		}
	}
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *MemoryCache) evictOldest() bool {
	elem := c.order.Back()
	if elem == nil {
		return false
	}
	c.removeElement(elem)
	return true
}

func (c *MemoryCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	delete(c.items, entry.fingerprint)
	c.bytes -= int64(len(entry.artifact.Bytecode))
	c.order.Remove(elem)
}
