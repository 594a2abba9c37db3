package sources

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps items in process. It backs tests and small deployments
// seeded from a file.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Item
}

var _ ItemStore = (*MemoryStore)(nil)

func NewMemoryStore(items ...Item) *MemoryStore {
	s := &MemoryStore{}
	s.Add(items...)
	return s
}

// Add inserts or replaces items by id, deriving normalized fields.
func (s *MemoryStore) Add(items ...Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		it = it.Normalized()
		idx := slices.IndexFunc(s.items, func(cur Item) bool { return cur.ID == it.ID })
		if idx >= 0 {
			s.items[idx] = it
			continue
		}
		s.items = append(s.items, it)
	}
}

func (s *MemoryStore) SearchItems(ctx context.Context, term string, limit int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []Item
	for _, it := range s.items {
		if it.Published() && it.Matches(term) {
			out = append(out, it)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b Item) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UsedTaxonomy(ctx context.Context) (TaxonomyRefs, error) {
	if err := ctx.Err(); err != nil {
		return TaxonomyRefs{}, err
	}
	subs := make(map[string]struct{})
	divs := make(map[string]struct{})

	s.mu.RLock()
	for _, it := range s.items {
		if !it.Published() {
			continue
		}
		if it.Subcategory != "" {
			subs[it.Subcategory] = struct{}{}
		}
		if it.Subdivision != "" {
			divs[it.Subdivision] = struct{}{}
		}
	}
	s.mu.RUnlock()

	return TaxonomyRefs{
		Subcategories: sortedKeys(subs),
		Subdivisions:  sortedKeys(divs),
	}, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
