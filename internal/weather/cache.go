package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attire/internal/db"
)

const cacheKeyPrefix = "attire:forecast:"

// store is the consumer interface for the forecast cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedProvider caches forecasts in a key-value store. Nearby coordinates
// share a cache cell: keys round to two decimal places, roughly a kilometre.
type CachedProvider struct {
	inner      Provider
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func NewCachedProvider(
	inner Provider,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedProvider {
	return &CachedProvider{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Forecast returns a cached forecast or calls the inner provider.
func (c *CachedProvider) Forecast(ctx context.Context, lat, lng float64) (Forecast, error) {
	key := c.cacheKey(lat, lng)

	if fc, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return fc, nil
	}

	c.incCache("miss")

	fc, err := c.inner.Forecast(ctx, lat, lng)
	if err != nil {
		return Forecast{}, err
	}

	c.putToCache(ctx, key, fc)
	return fc, nil
}

func (c *CachedProvider) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedProvider) cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%s%.2f:%.2f", cacheKeyPrefix, lat, lng)
}

func (c *CachedProvider) getFromCache(ctx context.Context, key string) (Forecast, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached forecast", zap.String("key", key), zap.Error(err))
		}
		return Forecast{}, false
	}
	if len(data) == 0 {
		return Forecast{}, false
	}

	var fc Forecast
	if err := json.Unmarshal(data, &fc); err != nil {
		c.logger.Warn("Failed to parse cached forecast", zap.String("key", key), zap.Error(err))
		// Purge the poisoned entry now; it must not sit there until TTL
		// expiry when the upstream fetch below fails.
		if err := c.store.Del(ctx, key); err != nil {
			c.logger.Warn("Failed to purge corrupt forecast entry", zap.String("key", key), zap.Error(err))
		}
		return Forecast{}, false
	}
	return fc, true
}

func (c *CachedProvider) putToCache(ctx context.Context, key string, fc Forecast) {
	data, err := json.Marshal(fc)
	if err != nil {
		c.logger.Warn("Failed to encode forecast for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache forecast", zap.String("key", key), zap.Error(err))
	}
}
