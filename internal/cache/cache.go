package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/searchforge/suggestions/obs"
)

// Cache memoizes computations in a Store under the TTL policy of one
// environment. There is no single-flight: concurrent misses on the same key
// all compute and the last write wins.
type Cache struct {
	store  Store
	policy Policy
	logger *slog.Logger
}

// New builds a Cache. A nil store disables caching.
func New(store Store, policy Policy, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, policy: policy, logger: logger}
}

// Policy returns the TTL policy in force.
func (c *Cache) Policy() Policy {
	if c == nil {
		return Policy{Env: EnvTest}
	}
	return c.policy
}

// Invalidate drops every entry carrying any of tags.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	if c == nil || c.store == nil {
		return nil
	}
	var errs []error
	for _, tag := range tags {
		if err := c.store.InvalidateTag(ctx, tag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options describe how one computation is cached.
type Options struct {
	Class Class
	Tags  []string
}

// GetOrCompute returns the cached value under key, or runs compute and
// stores its result. Store failures and undecodable entries count as misses;
// only compute errors are returned, and they are never cached.
func GetOrCompute[T any](ctx context.Context, c *Cache, key Key, opts Options, compute func(context.Context) (T, error)) (T, error) {
	ttl := c.Policy().TTL(opts.Class)
	if c == nil || c.store == nil || !c.policy.ShouldCache() || ttl <= 0 {
		obs.ObserveCacheLookup(string(opts.Class), "bypass")
		return compute(ctx)
	}

	id := key.ID()
	raw, ok, err := c.store.Get(ctx, id)
	switch {
	case err != nil:
		obs.ObserveCacheLookup(string(opts.Class), "error")
		c.logger.Warn("cache get failed", "key", id, "err", err)
	case ok:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			obs.ObserveCacheLookup(string(opts.Class), "hit")
			return cached, nil
		}
		obs.ObserveCacheLookup(string(opts.Class), "error")
		c.logger.Warn("dropping undecodable cache entry", "key", id)
	default:
		obs.ObserveCacheLookup(string(opts.Class), "miss")
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", id, "err", err)
		return value, nil
	}
	if err := c.store.Set(ctx, id, encoded, SetOptions{TTL: ttl, Tags: opts.Tags}); err != nil {
		c.logger.Warn("cache set failed", "key", id, "err", err)
	}
	return value, nil
}
