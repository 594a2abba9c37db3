package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/searchforge/suggestions/policy"
)

// GuardedConfig configures the guards a Guarded store puts in front of each
// operation. Name fields of the embedded GuardConfig are filled in.
type GuardedConfig struct {
	Search policy.GuardConfig
	Usage  policy.GuardConfig
	Ping   policy.GuardConfig
}

// Guarded decorates an ItemStore with a timeout, rate limiter and circuit
// breaker per operation. Rejections surface as ErrStoreUnavailable.
type Guarded struct {
	inner  ItemStore
	search *policy.Guard
	usage  *policy.Guard
	ping   *policy.Guard
}

var _ ItemStore = (*Guarded)(nil)

func NewGuarded(inner ItemStore, cfg GuardedConfig) (*Guarded, error) {
	if inner == nil {
		return nil, errors.New("guarded store: nil inner store")
	}
	cfg.Search.Name = "search_items"
	cfg.Usage.Name = "used_taxonomy"
	cfg.Ping.Name = "ping"

	g := &Guarded{inner: inner}
	var err error
	if g.search, err = policy.NewGuard(cfg.Search); err != nil {
		return nil, err
	}
	if g.usage, err = policy.NewGuard(cfg.Usage); err != nil {
		return nil, err
	}
	if g.ping, err = policy.NewGuard(cfg.Ping); err != nil {
		return nil, err
	}
	return g, nil
}

// Breakers returns the per-operation breakers keyed by operation name.
func (g *Guarded) Breakers() map[string]*policy.Breaker {
	return map[string]*policy.Breaker{
		"search_items":  g.search.Breaker(),
		"used_taxonomy": g.usage.Breaker(),
		"ping":          g.ping.Breaker(),
	}
}

func (g *Guarded) SearchItems(ctx context.Context, term string, limit int) ([]Item, error) {
	var items []Item
	err := g.search.Execute(ctx, func(ctx context.Context) error {
		var err error
		items, err = g.inner.SearchItems(ctx, term, limit)
		return err
	})
	return items, unavailable("search items", err)
}

func (g *Guarded) UsedTaxonomy(ctx context.Context) (TaxonomyRefs, error) {
	var refs TaxonomyRefs
	err := g.usage.Execute(ctx, func(ctx context.Context) error {
		var err error
		refs, err = g.inner.UsedTaxonomy(ctx)
		return err
	})
	return refs, unavailable("used taxonomy", err)
}

func (g *Guarded) Ping(ctx context.Context) error {
	return unavailable("ping", g.ping.Execute(ctx, g.inner.Ping))
}

func unavailable(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, policy.ErrCircuitOpen), errors.Is(err, policy.ErrRateLimited), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	default:
		return err
	}
}
