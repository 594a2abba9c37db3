package taxonomy

import (
	"path"
	"strings"
)

// DefaultURLPrefix is the listing route taxonomy suggestions point at.
const DefaultURLPrefix = "/ipiresies"

// Match is a taxonomy node whose label contains the search term.
type Match struct {
	Level       Level
	Category    *Node
	Subcategory *Node
	// Subdivision is nil for subcategory-level matches.
	Subdivision *Node
	// Label is the normalized label the term was found in.
	Label string
}

// Node returns the matched node itself.
func (m Match) Node() *Node {
	if m.Level == LevelSubdivision {
		return m.Subdivision
	}
	return m.Subcategory
}

// URL builds the listing path for the match under prefix.
func (m Match) URL(prefix string) string {
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	parts := []string{prefix, m.Subcategory.Slug}
	if m.Level == LevelSubdivision && m.Subdivision != nil {
		parts = append(parts, m.Subdivision.Slug)
	}
	return path.Join(parts...)
}

// Matches keeps subcategory and subdivision hits apart; subdivisions are
// shown first.
type Matches struct {
	Subcategories []Match
	Subdivisions  []Match
}

// Len is the total number of matches.
func (m Matches) Len() int {
	return len(m.Subcategories) + len(m.Subdivisions)
}

// Matcher walks an Index looking for used nodes whose label contains a term.
type Matcher struct {
	index *Index
}

func NewMatcher(index *Index) *Matcher {
	return &Matcher{index: index}
}

// Match collects every used subcategory and subdivision whose normalized
// label contains term. term must already be normalized. A nil or empty index
// yields no matches.
func (m *Matcher) Match(term string, used UsedIDs) Matches {
	var out Matches
	if m == nil || m.index == nil {
		return out
	}

	for _, cat := range m.index.Categories() {
		for _, sub := range cat.Children {
			if !used.SubcategoryInUse(sub) {
				continue
			}

			label := m.index.NormalizedLabel(sub)
			if strings.Contains(label, term) {
				out.Subcategories = append(out.Subcategories, Match{
					Level:       LevelSubcategory,
					Category:    cat,
					Subcategory: sub,
					Label:       label,
				})
			}

			for _, div := range sub.Children {
				if !used.HasSubdivision(div.ID) {
					continue
				}
				divLabel := m.index.NormalizedLabel(div)
				if !strings.Contains(divLabel, term) {
					continue
				}
				out.Subdivisions = append(out.Subdivisions, Match{
					Level:       LevelSubdivision,
					Category:    cat,
					Subcategory: sub,
					Subdivision: div,
					Label:       divLabel,
				})
			}
		}
	}
	return out
}
