// Package contentcache holds fetched document content in memory so repeated
// operations against the same source never re-fetch within cache lifetime.
// Eviction is strictly least-recently-touched first; fetch cost dominates,
// so no size- or frequency-weighted heuristic is worth the complexity.
package contentcache

import (
	"container/list"
	"sync"
	"time"

	"github.com/sells-group/docstash/internal/model"
)

// Entry is one cached document keyed by its source (URL or document ID).
// ApproxBytes is 2x the character length, a UTF-16-width approximation.
type Entry struct {
	Key         string
	Content     string
	Metadata    map[string]string
	ContentType model.ContentType
	ApproxBytes int64
	FetchedAt   time.Time
}

// Stats reports current cache occupancy.
type Stats struct {
	EntryCount       int   `json:"entry_count"`
	TotalApproxBytes int64 `json:"total_approx_bytes"`
}

// Cache is a byte-budgeted LRU over document content. All mutations are
// serialized under one mutex; the serve mode host is multi-goroutine.
type Cache struct {
	mu       sync.Mutex
	maxBytes int64
	total    int64
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
	now      func() time.Time
}

// New creates a Cache with the given byte ceiling. now is injectable for
// tests; pass nil for time.Now.
func New(maxBytes int64, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		maxBytes: maxBytes,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		now:      now,
	}
}

// Get returns the entry for key, touching its recency on a hit.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*Entry), true
}

// Put stores content under key, evicting least-recently-touched entries
// until the new entry fits. An entry whose own size exceeds the ceiling is
// never admitted; Put reports whether the content was cached.
func (c *Cache) Put(key, content string, metadata map[string]string, contentType model.ContentType) bool {
	size := 2 * int64(len([]rune(content)))
	if size > c.maxBytes {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.total -= el.Value.(*Entry).ApproxBytes
		c.order.Remove(el)
		delete(c.entries, key)
	}

	for c.total+size > c.maxBytes {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*Entry)
		c.total -= evicted.ApproxBytes
		c.order.Remove(oldest)
		delete(c.entries, evicted.Key)
	}

	entry := &Entry{
		Key:         key,
		Content:     content,
		Metadata:    metadata,
		ContentType: contentType,
		ApproxBytes: size,
		FetchedAt:   c.now(),
	}
	c.entries[key] = c.order.PushFront(entry)
	c.total += size
	return true
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.total = 0
}

// Stats returns current entry count and total approximate bytes.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{EntryCount: len(c.entries), TotalApproxBytes: c.total}
}
