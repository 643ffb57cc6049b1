package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Rate catalog lookups answered from memory.",
	}, []string{"kind"})
	cacheMiss = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_miss_total",
		Help: "Rate catalog lookups that went to the database.",
	}, []string{"kind"})
)

type entry[V any] struct {
	value    V
	loadedAt time.Time
}

// readCache is a TTL map in front of the catalog tables. Concurrent misses for
// the same key share one load.
type readCache[K comparable, V any] struct {
	kind  string
	mu    sync.RWMutex
	items map[K]entry[V]
	ttl   time.Duration
	group singleflight.Group
}

func newReadCache[K comparable, V any](kind string, ttl time.Duration) *readCache[K, V] {
	return &readCache[K, V]{
		kind:  kind,
		items: make(map[K]entry[V]),
		ttl:   ttl,
	}
}

func (c *readCache[K, V]) get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	if !ok || (c.ttl > 0 && time.Since(v.loadedAt) > c.ttl) {
		var zero V
		return zero, false
	}
	return v.value, true
}

func (c *readCache[K, V]) set(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: v, loadedAt: time.Now()}
}

func (c *readCache[K, V]) invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// load returns the cached value or calls fn once for all concurrent callers.
// Errors are never cached.
func (c *readCache[K, V]) load(key K, fn func() (V, error)) (V, error) {
	if v, ok := c.get(key); ok {
		cacheHits.WithLabelValues(c.kind).Inc()
		return v, nil
	}
	cacheMiss.WithLabelValues(c.kind).Inc()

	res, err, _ := c.group.Do(fmt.Sprintf("%v", key), func() (interface{}, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
