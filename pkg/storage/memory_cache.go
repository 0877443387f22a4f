package storage

import (
	"container/list"
	"sync"
	"time"
)

type cacheItem[V any] struct {
	key       string
	value     V
	timestamp time.Time
	element   *list.Element
}

// MemoryCache is an LRU cache with optional TTL, safe for concurrent use
type MemoryCache[V any] struct {
	maxSize int
	items   map[string]*cacheItem[V]
	lruList *list.List
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates a cache holding at most maxSize items without expiry
func NewMemoryCache[V any](maxSize int) *MemoryCache[V] {
	return NewMemoryCacheWithTTL[V](maxSize, 0)
}

// NewMemoryCacheWithTTL creates a cache whose items expire ttl after their last Set.
// A positive ttl starts a cleanup goroutine that runs until Close.
func NewMemoryCacheWithTTL[V any](maxSize int, ttl time.Duration) *MemoryCache[V] {
	cache := &MemoryCache[V]{
		maxSize: maxSize,
		items:   make(map[string]*cacheItem[V]),
		lruList: list.New(),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if ttl > 0 {
		go cache.cleanupRoutine()
	}
	return cache
}

// Set adds or updates an item, evicting the least recently used one when full
func (mc *MemoryCache[V]) Set(key string, value V) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if item, exists := mc.items[key]; exists {
		item.value = value
		item.timestamp = now
		mc.lruList.MoveToFront(item.element)
		return
	}

	item := &cacheItem[V]{key: key, value: value, timestamp: now}
	item.element = mc.lruList.PushFront(item)
	mc.items[key] = item

	if len(mc.items) > mc.maxSize {
		mc.evictOldest()
	}
}

// Get retrieves an unexpired item and marks it as recently used
func (mc *MemoryCache[V]) Get(key string) (V, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var zero V
	item, exists := mc.items[key]
	if !exists {
		return zero, false
	}
	if mc.expired(item, mc.now()) {
		mc.deleteItem(item)
		return zero, false
	}

	mc.lruList.MoveToFront(item.element)
	return item.value, true
}

func (mc *MemoryCache[V]) Delete(key string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if item, exists := mc.items[key]; exists {
		mc.deleteItem(item)
	}
}

// Size returns the current number of items in the cache
func (mc *MemoryCache[V]) Size() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}

// Stats returns cache statistics
func (mc *MemoryCache[V]) Stats() CacheStats {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return CacheStats{
		Size:    len(mc.items),
		MaxSize: mc.maxSize,
		TTL:     mc.ttl,
	}
}

// Close stops the cleanup goroutine. The cache stays usable.
func (mc *MemoryCache[V]) Close() {
	mc.closeOnce.Do(func() { close(mc.stop) })
}

func (mc *MemoryCache[V]) evictOldest() {
	if element := mc.lruList.Back(); element != nil {
		mc.deleteItem(element.Value.(*cacheItem[V]))
	}
}

func (mc *MemoryCache[V]) deleteItem(item *cacheItem[V]) {
	delete(mc.items, item.key)
	mc.lruList.Remove(item.element)
}

func (mc *MemoryCache[V]) expired(item *cacheItem[V], now time.Time) bool {
	return mc.ttl > 0 && now.Sub(item.timestamp) > mc.ttl
}

// cleanupRoutine removes expired items every half TTL
func (mc *MemoryCache[V]) cleanupRoutine() {
	ticker := time.NewTicker(mc.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.cleanupExpired()
		case <-mc.stop:
			return
		}
	}
}

func (mc *MemoryCache[V]) cleanupExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for _, item := range mc.items {
		if mc.expired(item, now) {
			mc.deleteItem(item)
		}
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	TTL     time.Duration `json:"ttl"`
}
