package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/searchforge/suggestions/internal/cache"
	"github.com/searchforge/suggestions/internal/contract"
	"github.com/searchforge/suggestions/obs"
	"github.com/searchforge/suggestions/rank"
	"github.com/searchforge/suggestions/sources"
	"github.com/searchforge/suggestions/taxonomy"
	"github.com/searchforge/suggestions/textnorm"
)

// MinQueryLength is the shortest trimmed query that is searched at all.
const MinQueryLength = 2

// DefaultServiceURLPrefix is the route service previews link to.
const DefaultServiceURLPrefix = "/s"

const failureMessage = "search failed"

var tracer = otel.Tracer("github.com/searchforge/suggestions/internal/controller")

// Config groups controller dependencies.
type Config struct {
	Index  *taxonomy.Index
	Store  sources.ItemStore
	Cache  *cache.Cache
	Logger *slog.Logger

	TaxonomyURLPrefix string
	ServiceURLPrefix  string
	TaxonomyLimit     int
	ServiceLimit      int
	FetchWindow       int
}

// Controller answers suggestion queries: it matches the taxonomy, searches
// items, ranks both and caches the assembled result.
type Controller struct {
	index   *taxonomy.Index
	matcher *taxonomy.Matcher
	store   sources.ItemStore
	cache   *cache.Cache
	logger  *slog.Logger

	taxonomyURL   string
	serviceURL    string
	taxonomyLimit int
	serviceLimit  int
	fetchWindow   int
}

// New constructs a controller. A nil Index behaves as an empty taxonomy and
// a nil Cache disables caching.
func New(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, errors.New("item store required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TaxonomyURLPrefix == "" {
		cfg.TaxonomyURLPrefix = taxonomy.DefaultURLPrefix
	}
	if cfg.ServiceURLPrefix == "" {
		cfg.ServiceURLPrefix = DefaultServiceURLPrefix
	}
	if cfg.TaxonomyLimit <= 0 {
		cfg.TaxonomyLimit = rank.DefaultTaxonomyLimit
	}
	if cfg.ServiceLimit <= 0 {
		cfg.ServiceLimit = rank.DefaultServiceLimit
	}
	if cfg.FetchWindow <= 0 {
		cfg.FetchWindow = sources.FetchWindow
	}

	return &Controller{
		index:         cfg.Index,
		matcher:       taxonomy.NewMatcher(cfg.Index),
		store:         cfg.Store,
		cache:         cfg.Cache,
		logger:        cfg.Logger,
		taxonomyURL:   cfg.TaxonomyURLPrefix,
		serviceURL:    cfg.ServiceURLPrefix,
		taxonomyLimit: cfg.TaxonomyLimit,
		serviceLimit:  cfg.ServiceLimit,
		fetchWindow:   cfg.FetchWindow,
	}, nil
}

// Term trims and normalizes a raw query. ok is false when the query is too
// short to search.
func Term(query string) (term string, ok bool) {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		return "", false
	}
	term = textnorm.Normalize(trimmed)
	return term, term != ""
}

// SearchSuggestions is the boundary the UI calls. It never fails: store
// errors come back as an unsuccessful envelope with a generic message.
func (c *Controller) SearchSuggestions(ctx context.Context, query string) contract.Response {
	start := time.Now()
	traceID, _ := contract.TraceIDFromContext(ctx)

	if _, ok := Term(query); !ok {
		obs.ObserveSuggest("short", time.Since(start), traceID)
		empty := contract.EmptyResult()
		return contract.Response{Success: true, Data: &empty}
	}

	result, err := c.Suggest(ctx, query)
	if err != nil {
		obs.ObserveSuggest("error", time.Since(start), traceID)
		c.logger.Error("suggestions failed", "query", query, "trace_id", traceID, "err", err)
		return contract.Response{Success: false, Error: failureMessage}
	}

	outcome := "ok"
	if !result.HasResults {
		outcome = "empty"
	}
	obs.ObserveSuggest(outcome, time.Since(start), traceID)
	return contract.Response{Success: true, Data: &result}
}

// Suggest returns the cached or freshly computed suggestions for query.
// Short queries return an empty result without touching the cache or store.
func (c *Controller) Suggest(ctx context.Context, query string) (contract.SearchResult, error) {
	term, ok := Term(query)
	if !ok {
		return contract.EmptyResult(), nil
	}

	key := cache.BuildKey("search", cache.Params{"query": term, "type": "suggestions"})
	opts := cache.Options{
		Class: cache.ClassSearch,
		Tags:  []string{cache.SearchTag(term), cache.TagSearchResults, cache.TagItems},
	}
	return cache.GetOrCompute(ctx, c.cache, key, opts, func(ctx context.Context) (contract.SearchResult, error) {
		return c.compute(ctx, term)
	})
}

func (c *Controller) compute(ctx context.Context, term string) (contract.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "suggestions.compute")
	defer span.End()
	span.SetAttributes(attribute.String("suggestions.term", term))

	var (
		used     taxonomy.UsedIDs
		services []contract.ServicePreview
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		used, err = c.usedTaxonomy(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		services, err = c.searchServices(gctx, term)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		return contract.SearchResult{}, err
	}

	taxonomies := c.rankTaxonomies(term, c.matcher.Match(term, used))
	result := contract.NewSearchResult(taxonomies, services)
	span.SetAttributes(
		attribute.Int("suggestions.taxonomies", len(result.Taxonomies)),
		attribute.Int("suggestions.services", len(result.Services)),
	)
	return result, nil
}

// Invalidate drops cached entries carrying any of tags.
func (c *Controller) Invalidate(ctx context.Context, tags ...string) error {
	return c.cache.Invalidate(ctx, tags...)
}

// Ping validates the item store is reachable.
func (c *Controller) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	if err := c.store.Ping(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: ping timed out", sources.ErrStoreUnavailable)
		}
		return err
	}
	return nil
}
