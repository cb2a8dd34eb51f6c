package queryir

import (
	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/schema"
)

// Query is a resolved query ready for SQL generation.
//
// This is a sealed interface - only *DataQuery and *MembersQuery implement it.
// Backends switch over the concrete type exhaustively.
type Query interface {
	// QueryCube returns the cube every entity of the query belongs to.
	QueryCube() *schema.Cube

	// EntityMap returns the flat output-name to entity map consumed by SQL
	// generation. The map is a fresh copy.
	EntityMap() map[string]schema.Entity

	queryNode() // Marker method - seals interface to this package
}

// LevelField is a level selected by a query, either as a drilldown (selected
// and grouped by) or only because it is cut.
//
// All slices follow schema declaration order except MembersInclude and
// MembersExclude, which keep request order.
type LevelField struct {
	Level           *schema.Level
	IsDrilldown     bool
	MembersInclude  []string
	MembersExclude  []string
	Properties      []*schema.Property
	Caption         *schema.Property
	TimeRestriction *request.TimeRestriction
}

// Name returns the level name.
func (f LevelField) Name() string { return f.Level.Name }

// LabelColumn returns the column labelling the level's members: the caption
// property's column when there is one, else the localized name column, else
// the key column.
func (f LevelField) LabelColumn(locale string) string {
	if f.Caption != nil {
		if col, ok := f.Caption.Column(locale); ok {
			return col
		}
	}
	if col, ok := f.Level.NameColumn(locale); ok {
		return col
	}
	return f.Level.KeyColumn
}

// HasIDColumn reports whether the key column is output on its own, as
// "<Level> ID", next to the label column.
func (f LevelField) HasIDColumn(locale string) bool {
	return f.LabelColumn(locale) != f.Level.KeyColumn
}

// IsCut reports whether the field restricts the level's members.
func (f LevelField) IsCut() bool {
	return len(f.MembersInclude) > 0 || len(f.MembersExclude) > 0
}

// HierarchyField groups the selected levels of one hierarchy, shallow to deep.
// A query holds at most one HierarchyField per dimension.
type HierarchyField struct {
	Dimension *schema.Dimension
	Hierarchy *schema.Hierarchy
	Levels    []LevelField
}

// Drilldowns returns the fields that are selected and grouped by.
func (h HierarchyField) Drilldowns() []LevelField {
	var out []LevelField
	for _, lf := range h.Levels {
		if lf.IsDrilldown {
			out = append(out, lf)
		}
	}
	return out
}

// Level returns the field for the named level.
func (h HierarchyField) Level(name string) (LevelField, bool) {
	for _, lf := range h.Levels {
		if lf.Level.Name == name {
			return lf, true
		}
	}
	return LevelField{}, false
}

// MeasureField is a measure or submeasure taking part in a query.
//
// A measure may take part without being output: it is then only filtered on.
// Joint is set if and only if both constraints are. WithRanking is never set
// on a submeasure.
type MeasureField struct {
	Measure     *schema.Measure
	IsMeasure   bool
	Constraint1 *request.Constraint
	Constraint2 *request.Constraint
	Joint       request.Joint
	WithRanking request.Direction
}

// Name returns the measure name.
func (f MeasureField) Name() string { return f.Measure.Name }

// HasFilter reports whether any constraint is attached.
func (f MeasureField) HasFilter() bool { return f.Constraint1 != nil }

// SortField is the resolved sorting directive.
type SortField struct {
	Field     string
	Entity    schema.Entity
	Direction request.Direction
}

// DataQuery is a resolved data request.
type DataQuery struct {
	Cube               *schema.Cube
	Locale             string
	FieldsQualitative  []HierarchyField // cube dimension order
	FieldsQuantitative []MeasureField   // cube measure order, submeasures after their parent
	Properties         []*schema.Property
	Pagination         request.Pagination
	Sorting            *SortField
}

func (q *DataQuery) QueryCube() *schema.Cube { return q.Cube }
func (*DataQuery) queryNode()                {}

// Measures returns the output measure fields.
func (q *DataQuery) Measures() []MeasureField {
	var out []MeasureField
	for _, mf := range q.FieldsQuantitative {
		if mf.IsMeasure {
			out = append(out, mf)
		}
	}
	return out
}

// HierarchyFor returns the field of the given dimension.
func (q *DataQuery) HierarchyFor(dimension string) (HierarchyField, bool) {
	for _, hf := range q.FieldsQualitative {
		if hf.Dimension.Name == dimension {
			return hf, true
		}
	}
	return HierarchyField{}, false
}

// MembersQuery is a resolved members request: the members of one level,
// optionally with its ancestor levels.
type MembersQuery struct {
	Cube       *schema.Cube
	Locale     string
	Hierarchy  HierarchyField
	Search     string
	Pagination request.Pagination
}

func (q *MembersQuery) QueryCube() *schema.Cube { return q.Cube }
func (*MembersQuery) queryNode()                {}

// Target returns the field of the requested level, the deepest one.
func (q *MembersQuery) Target() LevelField {
	return q.Hierarchy.Levels[len(q.Hierarchy.Levels)-1]
}
