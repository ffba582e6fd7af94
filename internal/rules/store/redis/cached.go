// Package redis caches the rules updated timestamp in Redis so every
// invocation does not hit the database to check for new rules.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"candlepin/internal/rules/metrics"
	"candlepin/internal/rules/models"
	"candlepin/pkg/platform/circuit"
	"candlepin/pkg/platform/sentinel"
)

const (
	updatedAtKey = "candlepin:rules:updated_at"
	noRulesValue = "none"

	defaultTTL = 30 * time.Second
)

// Store is the persistent rules store being cached.
type Store interface {
	Get(ctx context.Context) (*models.Rules, error)
	UpdatedAt(ctx context.Context) (time.Time, error)
	Put(ctx context.Context, rules *models.Rules) error
}

// CachedStore serves UpdatedAt from Redis with a short TTL. Redis failures
// trip a breaker and reads go straight to the wrapped store until Redis
// recovers.
type CachedStore struct {
	inner   Store
	client  *goredis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*CachedStore)

func WithTTL(ttl time.Duration) Option {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedStore) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *CachedStore) {
		c.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *CachedStore) {
		if b != nil {
			c.breaker = b
		}
	}
}

// NewCachedStore wraps inner with a Redis timestamp cache.
func NewCachedStore(inner Store, client *goredis.Client, opts ...Option) *CachedStore {
	c := &CachedStore{
		inner:   inner,
		client:  client,
		ttl:     defaultTTL,
		breaker: circuit.New("rules-timestamp-cache"),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedStore) Get(ctx context.Context) (*models.Rules, error) {
	return c.inner.Get(ctx)
}

// UpdatedAt returns the cached timestamp, loading and caching it on a miss.
func (c *CachedStore) UpdatedAt(ctx context.Context) (time.Time, error) {
	val, err := c.client.Get(ctx, updatedAtKey).Result()
	switch {
	case errors.Is(err, goredis.Nil):
		c.recordSuccess(ctx)
		c.metrics.IncrementCacheLookup("miss")
		return c.load(ctx)
	case err != nil:
		c.recordFailure(ctx, err)
		c.metrics.IncrementCacheLookup("error")
		return c.inner.UpdatedAt(ctx)
	}

	if !c.recordSuccess(ctx) {
		c.metrics.IncrementCacheLookup("bypass")
		return c.inner.UpdatedAt(ctx)
	}
	c.metrics.IncrementCacheLookup("hit")
	if val == noRulesValue {
		return time.Time{}, sentinel.ErrNotFound
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return c.load(ctx)
	}
	return ts, nil
}

// Put writes through and drops the cached timestamp.
func (c *CachedStore) Put(ctx context.Context, r *models.Rules) error {
	if err := c.inner.Put(ctx, r); err != nil {
		return err
	}
	if err := c.client.Del(ctx, updatedAtKey).Err(); err != nil {
		c.recordFailure(ctx, err)
		c.logger.WarnContext(ctx, "failed to invalidate rules timestamp cache", "error", err)
	}
	return nil
}

func (c *CachedStore) load(ctx context.Context) (time.Time, error) {
	ts, err := c.inner.UpdatedAt(ctx)
	value := ""
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		value = noRulesValue
	case err != nil:
		return time.Time{}, err
	default:
		value = ts.UTC().Format(time.RFC3339Nano)
	}
	if setErr := c.client.Set(ctx, updatedAtKey, value, c.ttl).Err(); setErr != nil {
		c.recordFailure(ctx, setErr)
	}
	return ts, err
}

func (c *CachedStore) recordSuccess(ctx context.Context) bool {
	usePrimary, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.InfoContext(ctx, "rules timestamp cache recovered", "breaker", c.breaker.Name())
	}
	return usePrimary
}

func (c *CachedStore) recordFailure(ctx context.Context, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.WarnContext(ctx, "rules timestamp cache unavailable, reading through",
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
}
