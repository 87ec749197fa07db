// Package ui holds navigation bar state that is independent of HTML.
package ui

// Boundary is a set of element IDs treated as one interaction region.
// Interactions whose target is not in the set are "outside".
type Boundary struct {
	ids map[string]struct{}
}

// NewBoundary creates a boundary covering the given element IDs.
func NewBoundary(ids ...string) Boundary {
	b := Boundary{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		b.ids[id] = struct{}{}
	}
	return b
}

// Contains reports whether target is inside the boundary.
func (b Boundary) Contains(target string) bool {
	_, ok := b.ids[target]
	return ok
}

// OnOutside calls dismiss when target lies outside the boundary and
// reports whether it did.
func (b Boundary) OnOutside(target string, dismiss func()) bool {
	if b.Contains(target) {
		return false
	}
	dismiss()
	return true
}
