package local

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

// entry holds a cached string value with an optional expiry.
type entry struct {
	data     string
	expireAt time.Time // zero = no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// LocalCache is an in-process cache implementing the Cache interface.
// Room snapshots and event feeds live here when no Redis is configured.
type LocalCache struct {
	mu    sync.RWMutex
	kv    map[string]*entry
	lists map[string][]string

	gcInterval time.Duration
	stopGC     chan struct{}
	closeOnce  sync.Once
}

// NewCache creates a LocalCache and starts the background GC goroutine.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:         make(map[string]*entry),
		lists:      make(map[string][]string),
		gcInterval: interval,
		stopGC:     make(chan struct{}),
	}
	go c.runGC()
	return c, nil
}

// Close stops the background GC goroutine.
func (c *LocalCache) Close() {
	c.closeOnce.Do(func() { close(c.stopGC) })
}

func (c *LocalCache) runGC() {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired(now) {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

// ---- KV ----

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.kv[key]
	c.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return "", ErrNotFound
	}
	return e.data, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := &entry{data: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = e
	c.mu.Unlock()
	return nil
}

// Del removes keys of any type.
func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.lists, k)
	}
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.kv[key]; ok && !e.expired(time.Now()) {
		return true, nil
	}
	_, ok := c.lists[key]
	return ok, nil
}

// ---- List ----

// LPush prepends values in order, so the last value ends up at index 0.
func (c *LocalCache) LPush(_ context.Context, key string, values ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.lists[key]
	l := make([]string, 0, len(old)+len(values))
	for i := len(values) - 1; i >= 0; i-- {
		l = append(l, values[i])
	}
	c.lists[key] = append(l, old...)
	return nil
}

func (c *LocalCache) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l := c.lists[key]
	lo, hi, ok := span(int64(len(l)), start, stop)
	if !ok {
		return []string{}, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, l[lo:hi+1])
	return out, nil
}

func (c *LocalCache) LTrim(_ context.Context, key string, start, stop int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.lists[key]
	lo, hi, ok := span(int64(len(l)), start, stop)
	if !ok {
		delete(c.lists, key)
		return nil
	}
	c.lists[key] = append([]string(nil), l[lo:hi+1]...)
	return nil
}

// span resolves Redis-style inclusive indexes (negative counts from the
// end) against a list of length n.
func span(n, start, stop int64) (lo, hi int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return 0, 0, false
	}
	return start, stop, true
}
