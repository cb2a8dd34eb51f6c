package resolver

import "github.com/roach88/tesseract/internal/schema"

// DefaultMember is an implicit cut synthesized from a schema default member.
type DefaultMember struct {
	Level *schema.Level
	Key   string
}

// DefaultMembers returns, in cube dimension order, the default member of every
// dimension absent from sel whose default hierarchy declares one. Dimensions
// without a default member are left out of the query.
func DefaultMembers(cube *schema.Cube, sel HierarchySelection) []DefaultMember {
	var out []DefaultMember
	for _, dim := range cube.Dimensions {
		if _, present := sel[dim]; present {
			continue
		}
		lvl, key, ok := dim.DefaultHierarchy().DefaultMemberLevel()
		if !ok {
			continue
		}
		out = append(out, DefaultMember{Level: lvl, Key: key})
	}
	return out
}
