package resolver

import "github.com/roach88/tesseract/internal/schema"

// HierarchySelection maps every involved dimension to the one hierarchy the
// query uses for it.
type HierarchySelection map[*schema.Dimension]*schema.Hierarchy

// CheckHierarchies groups the involved levels by dimension and fails with
// CrossHierarchyConflict when two of them belong to different hierarchies of
// the same dimension. Levels are checked in the given order, so the error
// names the first level that claimed the dimension and the first that
// disagreed with it.
func CheckHierarchies(levels []*schema.Level) (HierarchySelection, error) {
	sel := make(HierarchySelection)
	witness := make(map[*schema.Dimension]*schema.Level)

	for _, lvl := range levels {
		dim, hie := lvl.Dimension(), lvl.Hierarchy()
		current, seen := sel[dim]
		if !seen {
			sel[dim] = hie
			witness[dim] = lvl
			continue
		}
		if current != hie {
			return nil, NewCrossHierarchyConflict(dim.Name, witness[dim], lvl)
		}
	}
	return sel, nil
}
