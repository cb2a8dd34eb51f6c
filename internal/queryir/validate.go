package queryir

import "fmt"

// ValidationResult lists the structural invariants a query violates.
type ValidationResult struct {
	// Valid is true when Violations is empty.
	Valid bool

	// Violations describes every broken invariant, in traversal order.
	Violations []string
}

// Validate re-checks the structural invariants of a resolved query:
//
//  1. at most one HierarchyField per dimension
//  2. every HierarchyField is non-empty and its hierarchy belongs to its dimension
//  3. every LevelField belongs to the field's hierarchy; levels are strictly shallow to deep
//  4. include and exclude members are never both set on one level
//  5. at most one level carries the time restriction
//  6. Joint is set if and only if both constraints are set
//  7. submeasures are never ranked
//  8. every entity belongs to the query cube
//
// The resolver only produces valid queries; Validate guards hand-built
// queries and regression tests. It is a pure function and collects all
// violations instead of stopping at the first.
func Validate(q Query) ValidationResult {
	v := &validator{violations: []string{}}

	switch query := q.(type) {
	case *DataQuery:
		v.validateData(query)
	case *MembersQuery:
		v.validateMembers(query)
	case nil:
		v.add("nil query")
	default:
		v.add("unknown query type %T", q)
	}

	return ValidationResult{
		Valid:      len(v.violations) == 0,
		Violations: v.violations,
	}
}

type validator struct {
	violations []string
	timeFields int
}

func (v *validator) add(format string, args ...any) {
	v.violations = append(v.violations, fmt.Sprintf(format, args...))
}

func (v *validator) validateData(q *DataQuery) {
	if q.Cube == nil {
		v.add("query without cube")
		return
	}

	seen := make(map[string]bool, len(q.FieldsQualitative))
	for _, hf := range q.FieldsQualitative {
		if hf.Dimension == nil {
			v.add("hierarchy field without dimension")
			continue
		}
		if seen[hf.Dimension.Name] {
			v.add("dimension %q appears in more than one hierarchy field", hf.Dimension.Name)
		}
		seen[hf.Dimension.Name] = true
		v.validateHierarchy(q, hf)
	}

	if v.timeFields > 1 {
		v.add("time restriction attached to %d levels", v.timeFields)
	}

	for _, mf := range q.FieldsQuantitative {
		v.validateMeasure(q, mf)
	}
}

func (v *validator) validateMembers(q *MembersQuery) {
	if q.Cube == nil {
		v.add("query without cube")
		return
	}
	if q.Hierarchy.Dimension == nil {
		v.add("members query without hierarchy field")
		return
	}
	v.validateHierarchy(q, q.Hierarchy)
}

func (v *validator) validateHierarchy(q Query, hf HierarchyField) {
	dim := hf.Dimension.Name
	if hf.Hierarchy == nil {
		v.add("dimension %q: hierarchy field without hierarchy", dim)
		return
	}
	if hf.Hierarchy.Dimension() != hf.Dimension {
		v.add("dimension %q: hierarchy %q belongs to another dimension", dim, hf.Hierarchy.Name)
	}
	if hf.Dimension.Cube() != q.QueryCube() {
		v.add("dimension %q belongs to another cube", dim)
	}
	if len(hf.Levels) == 0 {
		v.add("dimension %q: empty hierarchy field", dim)
		return
	}

	prevDepth := -1
	for _, lf := range hf.Levels {
		if lf.Level == nil {
			v.add("dimension %q: level field without level", dim)
			continue
		}
		if lf.Level.Hierarchy() != hf.Hierarchy {
			v.add("level %q is not part of hierarchy %q", lf.Level.Name, hf.Hierarchy.Name)
		}
		if lf.Level.Depth() <= prevDepth {
			v.add("level %q is out of shallow-to-deep order", lf.Level.Name)
		}
		prevDepth = lf.Level.Depth()

		if len(lf.MembersInclude) > 0 && len(lf.MembersExclude) > 0 {
			v.add("level %q has both include and exclude members", lf.Level.Name)
		}
		if lf.TimeRestriction != nil {
			v.timeFields++
		}
		for _, prop := range lf.Properties {
			if prop.Level() != lf.Level {
				v.add("property %q is not declared by level %q", prop.Name, lf.Level.Name)
			}
		}
		if lf.Caption != nil && lf.Caption.Level() != lf.Level {
			v.add("caption %q is not declared by level %q", lf.Caption.Name, lf.Level.Name)
		}
	}
}

func (v *validator) validateMeasure(q *DataQuery, mf MeasureField) {
	if mf.Measure == nil {
		v.add("measure field without measure")
		return
	}
	name := mf.Measure.Name
	if mf.Measure.Cube() != q.Cube {
		v.add("measure %q belongs to another cube", name)
	}
	if mf.Constraint2 != nil && mf.Constraint1 == nil {
		v.add("measure %q: second constraint without a first", name)
	}
	if (mf.Joint != "") != (mf.Constraint2 != nil) {
		v.add("measure %q: joint must be set exactly when both constraints are", name)
	}
	if mf.WithRanking != "" && mf.Measure.IsSubmeasure() {
		v.add("submeasure %q must not be ranked", name)
	}
}
