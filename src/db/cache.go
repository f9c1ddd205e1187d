package db

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// PredictionCache holds classifier predictions keyed by normalized
// description. Writes are buffered by ristretto, so a Get right after a Set
// may miss until Wait is called.
type PredictionCache struct {
	cache *ristretto.Cache
}

func NewPredictionCache(maxItems int64) (*PredictionCache, error) {
	if maxItems < 1 {
		return nil, fmt.Errorf("prediction cache size must be positive, got %d", maxItems)
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // number of keys to track frequency of
		MaxCost:     maxItems,
		BufferItems: 64, // number of keys per Get buffer
		// Each entry costs exactly 1 so MaxCost is an item count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return &PredictionCache{cache: cache}, nil
}

func (c *PredictionCache) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *PredictionCache) Set(key string, value interface{}) {
	c.cache.Set(key, value, 1)
}

func (c *PredictionCache) Del(key string) {
	c.cache.Del(key)
}

func (c *PredictionCache) Clear() {
	c.cache.Clear()
}

// Wait blocks until buffered writes have been applied.
func (c *PredictionCache) Wait() {
	c.cache.Wait()
}

func (c *PredictionCache) Close() {
	c.cache.Close()
}
