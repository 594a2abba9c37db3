// Package sources provides the item stores the suggestion engine reads from.
package sources

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/searchforge/suggestions/textnorm"
)

// FetchWindow is how many candidates a search pulls from a store before
// re-ranking.
const FetchWindow = 100

// StatusPublished marks items visible to search.
const StatusPublished = "published"

// ErrStoreUnavailable wraps failures talking to the backing store.
var ErrStoreUnavailable = errors.New("item store unavailable")

// Coverage lists the places a provider serves.
type Coverage struct {
	Online   bool     `json:"online,omitempty" yaml:"online,omitempty"`
	Areas    []string `json:"areas,omitempty" yaml:"areas,omitempty"`
	Counties []string `json:"counties,omitempty" yaml:"counties,omitempty"`
}

// Text joins every coverage unit, areas first.
func (c Coverage) Text() string {
	units := make([]string, 0, len(c.Areas)+len(c.Counties))
	units = append(units, c.Areas...)
	units = append(units, c.Counties...)
	return strings.Join(units, ", ")
}

// Provider is the part of a provider profile search cares about.
type Provider struct {
	Coverage           Coverage `yaml:"coverage"`
	CoverageNormalized string   `yaml:"-"`
}

// Item is the read-only view of a marketplace service listing.
type Item struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Slug        string    `yaml:"slug"`
	Description string    `yaml:"description"`
	Category    string    `yaml:"category"`
	Subcategory string    `yaml:"subcategory"`
	Subdivision string    `yaml:"subdivision"`
	Status      string    `yaml:"status"`
	Rating      float64   `yaml:"rating"`
	UpdatedAt   time.Time `yaml:"updated_at"`

	TitleNormalized       string `yaml:"-"`
	DescriptionNormalized string `yaml:"-"`

	Provider Provider `yaml:"provider"`
}

// Normalized returns a copy with every normalized field derived from its
// raw counterpart.
func (it Item) Normalized() Item {
	it.TitleNormalized = textnorm.Normalize(it.Title)
	it.DescriptionNormalized = textnorm.Normalize(it.Description)
	it.Provider.CoverageNormalized = textnorm.Normalize(it.Provider.Coverage.Text())
	return it
}

// Published reports whether the item is visible to search.
func (it Item) Published() bool {
	return it.Status == StatusPublished
}

// Matches reports whether term occurs in the normalized title, description
// or coverage text.
func (it Item) Matches(term string) bool {
	return strings.Contains(it.TitleNormalized, term) ||
		strings.Contains(it.DescriptionNormalized, term) ||
		strings.Contains(it.Provider.CoverageNormalized, term)
}

// TaxonomyRefs holds the distinct taxonomy ids referenced by published items.
type TaxonomyRefs struct {
	Subcategories []string `json:"subcategories"`
	Subdivisions  []string `json:"subdivisions"`
}

// ItemStore is the read capability the suggestion engine needs.
type ItemStore interface {
	// SearchItems returns up to limit published items whose normalized
	// title, description or coverage contains term, best rated and most
	// recently updated first.
	SearchItems(ctx context.Context, term string, limit int) ([]Item, error)
	// UsedTaxonomy returns the distinct subcategory and subdivision ids of
	// all published items.
	UsedTaxonomy(ctx context.Context) (TaxonomyRefs, error)
	Ping(ctx context.Context) error
}
