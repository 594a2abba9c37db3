package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// DefaultWarmWorkers bounds how many warm-up queries run at once.
const DefaultWarmWorkers = 4

// Warm runs queries through Suggest so their results land in the cache. It
// returns how many queries completed without error. Failures are logged and
// skipped.
func (c *Controller) Warm(ctx context.Context, queries []string, workers int) (int, error) {
	if len(queries) == 0 {
		return 0, nil
	}
	if workers <= 0 {
		workers = DefaultWarmWorkers
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return 0, fmt.Errorf("warm pool: %w", err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		warmed atomic.Int64
	)
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if _, err := c.Suggest(ctx, q); err != nil {
				c.logger.Warn("warm query failed", "query", q, "err", err)
				return
			}
			warmed.Add(1)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return int(warmed.Load()), fmt.Errorf("warm submit: %w", err)
		}
	}
	wg.Wait()

	c.logger.Info("cache warmed", "queries", len(queries), "warmed", warmed.Load())
	return int(warmed.Load()), ctx.Err()
}
