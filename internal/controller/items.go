package controller

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/searchforge/suggestions/internal/contract"
	"github.com/searchforge/suggestions/rank"
	"github.com/searchforge/suggestions/sources"
	"github.com/searchforge/suggestions/textnorm"
)

// candidate pairs a preview with the key the ranker sorts it by.
type candidate struct {
	preview contract.ServicePreview
	key     rank.ServiceKey
}

// searchServices fetches up to the fetch window of matching items and ranks
// them down to the service limit.
func (c *Controller) searchServices(ctx context.Context, term string) ([]contract.ServicePreview, error) {
	ctx, span := tracer.Start(ctx, "suggestions.search_items")
	defer span.End()

	items, err := c.store.SearchItems(ctx, term, c.fetchWindow)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search items")
		return nil, err
	}
	span.SetAttributes(attribute.Int("suggestions.fetched", len(items)))

	candidates := make([]candidate, 0, len(items))
	for _, it := range items {
		candidates = append(candidates, c.candidate(term, it.Normalized()))
	}
	ranked := rank.Services(term, candidates, func(cd candidate) rank.ServiceKey { return cd.key }, c.serviceLimit)

	out := make([]contract.ServicePreview, len(ranked))
	for i, cd := range ranked {
		out[i] = cd.preview
	}
	return out, nil
}

func (c *Controller) candidate(term string, it sources.Item) candidate {
	match := classifyMatch(term, it)
	location := extractLocation(term, it.Provider.Coverage)
	return candidate{
		preview: contract.ServicePreview{
			Type:      contract.TypeService,
			ID:        it.ID,
			Title:     it.Title,
			Category:  c.categoryLabel(it.Category),
			Slug:      it.Slug,
			URL:       serviceURL(c.serviceURL, it.Slug),
			Location:  location,
			MatchType: match,
		},
		key: rank.ServiceKey{
			TitleNormalized: it.TitleNormalized,
			HasLocation:     location != "",
			CoverageMatch:   match == contract.MatchCoverage,
		},
	}
}

// classifyMatch picks the field the term was found in. Coverage outranks
// title, title outranks description; an item the store returned for another
// reason is reported as a description match.
func classifyMatch(term string, it sources.Item) contract.MatchType {
	switch {
	case strings.Contains(it.Provider.CoverageNormalized, term):
		return contract.MatchCoverage
	case strings.Contains(it.TitleNormalized, term):
		return contract.MatchTitle
	default:
		return contract.MatchDescription
	}
}

// extractLocation returns the longest coverage unit whose normalized form
// contains term. Areas are searched before counties; the first level with a
// hit wins.
func extractLocation(term string, cov sources.Coverage) string {
	for _, units := range [][]string{cov.Areas, cov.Counties} {
		if best := longestContaining(term, units); best != "" {
			return best
		}
	}
	return ""
}

func longestContaining(term string, units []string) string {
	var best string
	for _, u := range units {
		if !strings.Contains(textnorm.Normalize(u), term) {
			continue
		}
		if utf8.RuneCountInString(u) > utf8.RuneCountInString(best) {
			best = u
		}
	}
	return best
}

func (c *Controller) categoryLabel(id string) string {
	if c.index == nil {
		return id
	}
	if n, ok := c.index.Category(id); ok {
		return n.Label
	}
	return id
}

func serviceURL(prefix, slug string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + slug
}
