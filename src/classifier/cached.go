package classifier

import (
	"categorizer-server/src/db"
	"context"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Cached memoizes predictions by normalized description. Concurrent lookups
// for the same uncached description share one call to the wrapped Service.
// Anomaly checks are not cached.
type Cached struct {
	next  Service
	cache *db.PredictionCache
	group singleflight.Group
}

func NewCached(next Service, cache *db.PredictionCache) *Cached {
	return &Cached{next: next, cache: cache}
}

func (c *Cached) Available() bool {
	return c.next.Available()
}

func (c *Cached) Predict(ctx context.Context, description string) (Prediction, error) {
	key := cacheKey(description)
	if v, ok := c.cache.Get(key); ok {
		if p, ok := v.(Prediction); ok {
			return p, nil
		}
	}

	// The call is shared by every waiter, so one caller going away must not
	// cancel it for the others.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		p, err := c.next.Predict(shared, description)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, p)
		return p, nil
	})
	if err != nil {
		return Prediction{}, err
	}
	return v.(Prediction), nil
}

func (c *Cached) IsAnomaly(ctx context.Context, amount float64) (bool, error) {
	return c.next.IsAnomaly(ctx, amount)
}

func (c *Cached) ScoreAmounts(ctx context.Context, amounts []float64) ([]bool, error) {
	return c.next.ScoreAmounts(ctx, amounts)
}

// Clear drops every cached prediction.
func (c *Cached) Clear() {
	c.cache.Clear()
}

func cacheKey(description string) string {
	return strings.Join(strings.Fields(strings.ToLower(description)), " ")
}
