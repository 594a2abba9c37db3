package controller

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"github.com/searchforge/suggestions/internal/cache"
	"github.com/searchforge/suggestions/sources"
	"github.com/searchforge/suggestions/taxonomy"
)

var usageKey = cache.BuildKey("taxonomy-usage", nil)

// usedTaxonomy loads the ids of taxonomy nodes referenced by published
// items, cached under its own key and class.
func (c *Controller) usedTaxonomy(ctx context.Context) (taxonomy.UsedIDs, error) {
	ctx, span := tracer.Start(ctx, "suggestions.used_taxonomy")
	defer span.End()

	opts := cache.Options{
		Class: cache.ClassTaxonomyUsage,
		Tags:  []string{cache.TagTaxonomyUsage, cache.TagItems},
	}
	refs, err := cache.GetOrCompute(ctx, c.cache, usageKey, opts, func(ctx context.Context) (sources.TaxonomyRefs, error) {
		return c.store.UsedTaxonomy(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "used taxonomy")
		return taxonomy.UsedIDs{}, err
	}
	return taxonomy.NewUsedIDs(refs.Subcategories, refs.Subdivisions), nil
}
