package taxonomy

import "github.com/searchforge/suggestions/textnorm"

// Index is a read-only view of the taxonomy with constant-time id lookups.
// It is built once at start-up and is safe for any number of concurrent
// readers.
type Index struct {
	categories []*Node

	byLevel [3]map[string]*Node
	parent  map[*Node]*Node
	labels  map[*Node]string
}

// NewIndex deep-copies the dataset and indexes every node by level and id.
func NewIndex(ds Dataset) *Index {
	idx := &Index{
		byLevel: [3]map[string]*Node{{}, {}, {}},
		parent:  make(map[*Node]*Node),
		labels:  make(map[*Node]string),
	}
	for _, cat := range ds.Categories {
		if cat == nil {
			continue
		}
		cat = cat.clone()
		idx.categories = append(idx.categories, cat)
		idx.add(cat, nil, LevelCategory)
		for _, sub := range cat.Children {
			idx.add(sub, cat, LevelSubcategory)
			for _, div := range sub.Children {
				idx.add(div, sub, LevelSubdivision)
			}
		}
	}
	return idx
}

func (x *Index) add(n, parent *Node, level Level) {
	x.byLevel[level][n.ID] = n
	if parent != nil {
		x.parent[n] = parent
	}
	x.labels[n] = textnorm.Normalize(n.Label)
}

// Categories returns the top-level nodes in dataset order.
func (x *Index) Categories() []*Node {
	if x == nil {
		return nil
	}
	return x.categories
}

// Lookup returns the node with id at level.
func (x *Index) Lookup(level Level, id string) (*Node, bool) {
	if x == nil || level < LevelCategory || level > LevelSubdivision {
		return nil, false
	}
	n, ok := x.byLevel[level][id]
	return n, ok
}

func (x *Index) Category(id string) (*Node, bool)    { return x.Lookup(LevelCategory, id) }
func (x *Index) Subcategory(id string) (*Node, bool) { return x.Lookup(LevelSubcategory, id) }
func (x *Index) Subdivision(id string) (*Node, bool) { return x.Lookup(LevelSubdivision, id) }

// Parent returns the node one level up, or nil for categories.
func (x *Index) Parent(n *Node) *Node {
	if x == nil {
		return nil
	}
	return x.parent[n]
}

// NormalizedLabel returns the precomputed normalized label of an indexed node.
func (x *Index) NormalizedLabel(n *Node) string {
	if x == nil || n == nil {
		return ""
	}
	if label, ok := x.labels[n]; ok {
		return label
	}
	return textnorm.Normalize(n.Label)
}

// Len reports the number of indexed nodes at level.
func (x *Index) Len(level Level) int {
	if x == nil || level < LevelCategory || level > LevelSubdivision {
		return 0
	}
	return len(x.byLevel[level])
}
