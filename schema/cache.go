package schema

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL bounds how long a metadata answer is trusted before the
// inspector is consulted again. Existence checks run on every record
// load/save, so a long horizon is deliberate; DDL paths call Invalidate.
const DefaultTTL = 7 * 24 * time.Hour

type existsEntry struct {
	exists    bool
	expiresAt time.Time
}

type listingEntry struct {
	columns   []ColumnDescriptor
	expiresAt time.Time
}

// Cache answers column-existence and column-listing queries from memory,
// falling back to an Inspector on miss. Entries expire after the TTL and can
// be dropped per table after a DDL change. Reads take a shared lock; racing
// writers populate the same key with the same value, so last-write-wins is
// safe.
type Cache struct {
	inspector Inspector
	ttl       time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	exists   map[string]existsEntry
	listings map[string]listingEntry
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock injects the time source, used by tests to step across expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a Cache backed by the given inspector.
func NewCache(inspector Inspector, opts ...CacheOption) *Cache {
	c := &Cache{
		inspector: inspector,
		ttl:       DefaultTTL,
		now:       time.Now,
		exists:    make(map[string]existsEntry),
		listings:  make(map[string]listingEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(conn, table, column string) string {
	return conn + "|" + table + "|" + column
}

// Exists reports whether the column physically exists on the table. A
// metadata failure degrades to false and is not cached, so the next call
// retries a recovered inspector.
func (c *Cache) Exists(ctx context.Context, conn, table, column string) bool {
	key := cacheKey(conn, table, column)
	now := c.now()

	c.mu.RLock()
	e, ok := c.exists[key]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.exists
	}

	found, err := c.inspector.HasColumn(ctx, conn, table, column)
	if err != nil {
		return false
	}
	c.mu.Lock()
	c.exists[key] = existsEntry{exists: found, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	return found
}

// Columns returns the table's column listing, cached under the same TTL.
// Failures are returned to the caller and never cached.
func (c *Cache) Columns(ctx context.Context, conn, table string) ([]ColumnDescriptor, error) {
	key := cacheKey(conn, table, "")
	now := c.now()

	c.mu.RLock()
	e, ok := c.listings[key]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.columns, nil
	}

	cols, err := c.inspector.ListColumns(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.listings[key] = listingEntry{columns: cols, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	return cols, nil
}

// Invalidate drops every cached entry for the table. Call it after any DDL
// change (adding or dropping a mirror column) so the next lookup re-queries
// the inspector.
func (c *Cache) Invalidate(conn, table string) {
	prefix := cacheKey(conn, table, "")
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.exists {
		if strings.HasPrefix(k, prefix) {
			delete(c.exists, k)
		}
	}
	delete(c.listings, prefix)
}
