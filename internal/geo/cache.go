package geo

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cache memoizes IP to location lookups. Entries never expire individually;
// the whole map is dropped by Clear.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

func (c *Cache) Get(ip string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	location, ok := c.entries[ip]

	return location, ok
}

func (c *Cache) Set(ip, location string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[ip] = location
}

// Clear swaps in a fresh map and returns how many entries were dropped.
func (c *Cache) Clear() int {
	fresh := make(map[string]string)

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := len(c.entries)
	c.entries = fresh

	return dropped
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Janitor clears a Cache on a fixed interval.
type Janitor struct {
	cache    *Cache
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewJanitor creates a janitor for cache.
func NewJanitor(cache *Cache, interval time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		cache:    cache,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the clearing loop. It runs until ctx is done or Shutdown is called.
func (j *Janitor) Start(ctx context.Context) error {
	ctx, j.cancel = context.WithCancel(ctx)

	go j.loop(ctx)

	return nil
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := j.cache.Clear()
			j.logger.Debug("location cache cleared", zap.Int("entries", dropped))
		}
	}
}

// Shutdown stops the loop and waits for it to exit.
func (j *Janitor) Shutdown() error {
	if j.cancel == nil {
		return nil
	}

	j.cancel()
	<-j.done

	return nil
}
