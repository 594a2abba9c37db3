// Package taxonomy holds the fixed category → subcategory → subdivision tree
// that classifies marketplace services, an immutable id index over it and the
// matcher that turns a search term into taxonomy suggestions.
package taxonomy

// Level identifies a depth in the three-level tree.
type Level int

const (
	LevelCategory Level = iota
	LevelSubcategory
	LevelSubdivision
)

func (l Level) String() string {
	switch l {
	case LevelCategory:
		return "category"
	case LevelSubcategory:
		return "subcategory"
	case LevelSubdivision:
		return "subdivision"
	default:
		return "unknown"
	}
}

// Node is one entry of the taxonomy. Nodes handed out by an Index are shared
// between goroutines and must be treated as read-only.
type Node struct {
	ID       string  `yaml:"id" json:"id"`
	Label    string  `yaml:"label" json:"label"`
	Slug     string  `yaml:"slug" json:"slug"`
	Children []*Node `yaml:"children,omitempty" json:"children,omitempty"`
}

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{ID: n.ID, Label: n.Label, Slug: n.Slug}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, 0, len(n.Children))
		for _, child := range n.Children {
			if child == nil {
				continue
			}
			out.Children = append(out.Children, child.clone())
		}
	}
	return out
}
