package policy

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/searchforge/suggestions/obs"
)

// RateConfig configures the token bucket in front of a store operation.
// A zero PerSecond disables limiting.
type RateConfig struct {
	PerSecond float64
	Burst     int
}

// GuardConfig configures a Guard.
type GuardConfig struct {
	Name    string
	Timeout time.Duration
	Rate    RateConfig
	Breaker BreakerConfig
}

// Guard wraps calls for one store operation.
type Guard struct {
	name    string
	timeout time.Duration
	limiter *rate.Limiter
	breaker *Breaker
	now     func() time.Time
}

// NewGuard builds a Guard. Name is required; a zero Timeout leaves the
// caller's deadline untouched.
func NewGuard(cfg GuardConfig) (*Guard, error) {
	if cfg.Name == "" {
		return nil, errors.New("guard name required")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("guard timeout must not be negative")
	}

	var limiter *rate.Limiter
	if cfg.Rate.PerSecond > 0 {
		burst := cfg.Rate.Burst
		if burst <= 0 {
			burst = int(cfg.Rate.PerSecond) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate.PerSecond), burst)
	}

	return &Guard{
		name:    cfg.Name,
		timeout: cfg.Timeout,
		limiter: limiter,
		breaker: NewBreaker(cfg.Name, cfg.Breaker),
		now:     time.Now,
	}, nil
}

// Breaker exposes the guard's circuit breaker.
func (g *Guard) Breaker() *Breaker {
	return g.breaker
}

// Execute runs fn under the guard's breaker, limiter and timeout, and
// records its latency.
func (g *Guard) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !g.breaker.Allow(g.now()) {
		obs.RecordStoreCall(g.name, 0, ErrCircuitOpen)
		return ErrCircuitOpen
	}
	if g.limiter != nil && !g.limiter.AllowN(g.now(), 1) {
		// Rejected before reaching the store: give back a half-open probe
		// slot without recording an outcome.
		g.breaker.release()
		return ErrRateLimited
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	obs.RecordStoreCall(g.name, time.Since(start), err)

	// The caller abandoning the request says nothing about store health.
	if errors.Is(err, context.Canceled) {
		g.breaker.release()
		return err
	}
	g.breaker.Record(g.now(), err == nil)
	return err
}
