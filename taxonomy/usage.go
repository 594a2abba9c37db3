package taxonomy

// UsedIDs records which subcategory and subdivision ids are referenced by at
// least one published item.
type UsedIDs struct {
	subcategories map[string]struct{}
	subdivisions  map[string]struct{}
}

// NewUsedIDs builds the two id sets. Empty ids are ignored.
func NewUsedIDs(subcategoryIDs, subdivisionIDs []string) UsedIDs {
	return UsedIDs{
		subcategories: toSet(subcategoryIDs),
		subdivisions:  toSet(subdivisionIDs),
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (u UsedIDs) HasSubcategory(id string) bool {
	_, ok := u.subcategories[id]
	return ok
}

func (u UsedIDs) HasSubdivision(id string) bool {
	_, ok := u.subdivisions[id]
	return ok
}

// SubcategoryInUse reports whether sub is referenced directly or through one
// of its own subdivisions.
func (u UsedIDs) SubcategoryInUse(sub *Node) bool {
	if sub == nil {
		return false
	}
	if u.HasSubcategory(sub.ID) {
		return true
	}
	for _, div := range sub.Children {
		if div != nil && u.HasSubdivision(div.ID) {
			return true
		}
	}
	return false
}
