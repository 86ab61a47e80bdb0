package loader

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ginjaninja78/sellout-trends/internal/validation"
)

// FileIdentity is what makes a loaded table reusable: same path, same size,
// same modification time.
type FileIdentity struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Identify stats path.
func Identify(path string) (FileIdentity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileIdentity{}, err
	}
	return FileIdentity{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

type cacheKey struct {
	kind    SourceKind
	path    string
	size    int64
	modTime int64
	opts    string
}

type slot struct {
	kind SourceKind
	path string
}

type cacheEntry struct {
	facts    *FactTable
	zones    *ZoneTable
	products *ProductTable
	issues   []validation.Issue
}

// CacheStats reports cache activity.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache memoizes loaded tables by source kind and file identity. A file
// that changed on disk gets a new identity, so its old entry is never
// served and is evicted on the next lookup. A nil *Cache loads every time.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[cacheKey, cacheEntry]
	current map[slot]cacheKey
	hits    int
	misses  int
}

// NewCache creates a cache holding at most size tables.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader cache: %w", err)
	}
	return &Cache{entries: entries, current: make(map[slot]cacheKey)}, nil
}

// Facts returns the fact table for path, loading it on a miss. Load errors
// are not cached.
func (c *Cache) Facts(path string, opts Options) (*FactTable, error) {
	entry, err := c.get(KindSales, path, opts, func() (cacheEntry, error) {
		t, err := LoadFacts(path, opts)
		return cacheEntry{facts: t}, err
	})
	if err != nil {
		return nil, err
	}
	return entry.facts, nil
}

// Zones returns the zone table for path. Absent references are not cached.
func (c *Cache) Zones(path string, opts Options) (*ZoneTable, []validation.Issue) {
	load := func() (cacheEntry, error) {
		t, issues := LoadZones(path, opts)
		if t == nil {
			return cacheEntry{issues: issues}, errAbsent
		}
		return cacheEntry{zones: t, issues: issues}, nil
	}
	entry, _ := c.get(KindZones, path, opts, load)
	return entry.zones, entry.issues
}

// Products returns the product table for path. Absent references are not
// cached.
func (c *Cache) Products(path string, opts Options) (*ProductTable, []validation.Issue) {
	load := func() (cacheEntry, error) {
		t, issues := LoadProducts(path, opts)
		if t == nil {
			return cacheEntry{issues: issues}, errAbsent
		}
		return cacheEntry{products: t, issues: issues}, nil
	}
	entry, _ := c.get(KindProducts, path, opts, load)
	return entry.products, entry.issues
}

// errAbsent marks a reference load that must not be cached.
var errAbsent = errors.New("reference absent")

func (c *Cache) get(kind SourceKind, path string, opts Options, load func() (cacheEntry, error)) (cacheEntry, error) {
	if c == nil || path == "" {
		return load()
	}

	id, err := Identify(path)
	if err != nil {
		c.Invalidate(kind, path)
		return load()
	}

	key := cacheKey{
		kind:    kind,
		path:    path,
		size:    id.Size,
		modTime: id.ModTime.UnixNano(),
		opts:    opts.fingerprint(),
	}

	c.mu.Lock()
	if old, ok := c.current[slot{kind, path}]; ok && old != key {
		c.entries.Remove(old)
		delete(c.current, slot{kind, path})
	}
	if entry, ok := c.entries.Get(key); ok {
		c.hits++
		c.mu.Unlock()
		return entry, nil
	}
	c.misses++
	c.mu.Unlock()

	entry, err := load()
	if err != nil {
		return entry, err
	}

	c.mu.Lock()
	c.entries.Add(key, entry)
	c.current[slot{kind, path}] = key
	c.mu.Unlock()

	return entry, nil
}

// Invalidate drops the cached table for one source file.
func (c *Cache) Invalidate(kind SourceKind, path string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if key, ok := c.current[slot{kind, path}]; ok {
		c.entries.Remove(key)
		delete(c.current, slot{kind, path})
	}
}

// Purge drops every cached table.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.current = make(map[slot]cacheKey)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: c.entries.Len()}
}
