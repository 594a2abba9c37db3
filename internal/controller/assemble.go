package controller

import (
	"github.com/searchforge/suggestions/internal/contract"
	"github.com/searchforge/suggestions/rank"
	"github.com/searchforge/suggestions/taxonomy"
)

// rankTaxonomies orders matches (subdivisions first, prefix hits first
// within each level) and converts the survivors to suggestions.
func (c *Controller) rankTaxonomies(term string, matches taxonomy.Matches) []contract.TaxonomySuggestion {
	ranked := rank.Taxonomies(term, matches.Subdivisions, matches.Subcategories,
		func(m taxonomy.Match) string { return m.Label }, c.taxonomyLimit)

	out := make([]contract.TaxonomySuggestion, len(ranked))
	for i, m := range ranked {
		out[i] = c.taxonomySuggestion(m)
	}
	return out
}

func (c *Controller) taxonomySuggestion(m taxonomy.Match) contract.TaxonomySuggestion {
	node := m.Node()
	s := contract.TaxonomySuggestion{
		Type:        contract.TypeTaxonomy,
		ID:          node.ID,
		Label:       node.Label,
		Category:    m.Category.Label,
		Subcategory: m.Subcategory.Label,
		URL:         m.URL(c.taxonomyURL),
	}
	if m.Subdivision != nil {
		s.Subdivision = m.Subdivision.Label
	}
	return s
}
