// Package rank orders taxonomy and service matches for the suggestion box.
// Every function here is pure: the search term is passed in explicitly and
// inputs are never modified.
package rank

import (
	"slices"
	"strings"
)

// Default result caps per branch.
const (
	DefaultTaxonomyLimit = 5
	DefaultServiceLimit  = 5
)

// Top returns at most n leading elements of items. n <= 0 yields nil.
func Top[T any](items []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

// CompareTaxonomyLabels orders two normalized labels: a label starting with
// term sorts first, anything else is a tie.
func CompareTaxonomyLabels(term, a, b string) int {
	return compareBool(strings.HasPrefix(a, term), strings.HasPrefix(b, term))
}

// Taxonomies sorts subdivision and subcategory matches independently, joins
// them with subdivisions first and truncates to limit.
func Taxonomies[T any](term string, subdivisions, subcategories []T, label func(T) string, limit int) []T {
	byLabel := func(a, b T) int {
		return CompareTaxonomyLabels(term, label(a), label(b))
	}

	out := make([]T, 0, len(subdivisions)+len(subcategories))
	out = append(out, sortedCopy(subdivisions, byLabel)...)
	out = append(out, sortedCopy(subcategories, byLabel)...)
	return Top(out, limit)
}

// ServiceKey carries the fields the service comparator looks at.
type ServiceKey struct {
	// TitleNormalized is the normalized item title.
	TitleNormalized string
	// HasLocation is true when a coverage unit matched the term.
	HasLocation bool
	// CoverageMatch is true when the item matched on coverage text.
	CoverageMatch bool
}

// TitleStartsWith reports whether the whole title starts with term.
func (k ServiceKey) TitleStartsWith(term string) bool {
	return strings.HasPrefix(k.TitleNormalized, term)
}

// WordStartsWith reports whether any whitespace separated word of the title
// starts with term.
func (k ServiceKey) WordStartsWith(term string) bool {
	for _, w := range strings.Fields(k.TitleNormalized) {
		if strings.HasPrefix(w, term) {
			return true
		}
	}
	return false
}

// CompareServices applies the tiers in order and returns at the first one
// that tells a and b apart:
//
//  1. when neither title hits the term, a matched location wins
//  2. title starts with the term
//  3. some title word starts with the term
//  4. coverage match
//
// A zero result keeps the incoming order under a stable sort.
func CompareServices(term string, a, b ServiceKey) int {
	aStarts, bStarts := a.TitleStartsWith(term), b.TitleStartsWith(term)
	aWord, bWord := a.WordStartsWith(term), b.WordStartsWith(term)

	if !aStarts && !aWord && !bStarts && !bWord {
		if c := compareBool(a.HasLocation, b.HasLocation); c != 0 {
			return c
		}
	}
	if c := compareBool(aStarts, bStarts); c != 0 {
		return c
	}
	if c := compareBool(aWord, bWord); c != 0 {
		return c
	}
	return compareBool(a.CoverageMatch, b.CoverageMatch)
}

// Services stable-sorts items with CompareServices and truncates to limit.
func Services[T any](term string, items []T, key func(T) ServiceKey, limit int) []T {
	if len(items) == 0 {
		return nil
	}
	type keyed struct {
		key  ServiceKey
		item T
	}
	wrapped := make([]keyed, len(items))
	for i, it := range items {
		wrapped[i] = keyed{key: key(it), item: it}
	}
	slices.SortStableFunc(wrapped, func(a, b keyed) int {
		return CompareServices(term, a.key, b.key)
	})

	limit = min(limit, len(wrapped))
	if limit <= 0 {
		return nil
	}
	out := make([]T, limit)
	for i := range out {
		out[i] = wrapped[i].item
	}
	return out
}

func sortedCopy[T any](items []T, cmp func(a, b T) int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, cmp)
	return out
}

// compareBool sorts true before false.
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}
