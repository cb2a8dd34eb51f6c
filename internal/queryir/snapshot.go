package queryir

import (
	"github.com/roach88/tesseract/internal/ir"
	"github.com/roach88/tesseract/internal/request"
)

// Snapshot converts a query into canonical values. Entities are referenced by
// name; optional attributes are omitted when unset; constraint values are
// rendered as strings because canonical values carry no floats.
//
// Structurally equal queries produce equal snapshots, so the canonical
// encoding of a snapshot serves as the query fingerprint.
func Snapshot(q Query) ir.Object {
	switch query := q.(type) {
	case *DataQuery:
		return snapshotData(query)
	case *MembersQuery:
		return snapshotMembers(query)
	}
	return ir.Object{}
}

func snapshotData(q *DataQuery) ir.Object {
	hierarchies := make(ir.Array, 0, len(q.FieldsQualitative))
	for _, hf := range q.FieldsQualitative {
		hierarchies = append(hierarchies, snapshotHierarchy(hf))
	}

	measures := make(ir.Array, 0, len(q.FieldsQuantitative))
	for _, mf := range q.FieldsQuantitative {
		measures = append(measures, snapshotMeasure(mf))
	}

	props := make([]string, 0, len(q.Properties))
	for _, p := range q.Properties {
		props = append(props, p.Name)
	}

	obj := ir.Object{
		"kind":                ir.String("data"),
		"cube":                ir.String(q.Cube.Name),
		"locale":              ir.String(q.Locale),
		"fields_qualitative":  hierarchies,
		"fields_quantitative": measures,
		"properties":          ir.Strings(props),
	}
	if !q.Pagination.IsZero() {
		obj["pagination"] = snapshotPagination(q.Pagination)
	}
	if q.Sorting != nil {
		obj["sorting"] = ir.Object{
			"field":     ir.String(q.Sorting.Field),
			"direction": ir.String(string(q.Sorting.Direction)),
		}
	}
	return obj
}

func snapshotMembers(q *MembersQuery) ir.Object {
	obj := ir.Object{
		"kind":      ir.String("members"),
		"cube":      ir.String(q.Cube.Name),
		"locale":    ir.String(q.Locale),
		"hierarchy": snapshotHierarchy(q.Hierarchy),
	}
	if q.Search != "" {
		obj["search"] = ir.String(q.Search)
	}
	if !q.Pagination.IsZero() {
		obj["pagination"] = snapshotPagination(q.Pagination)
	}
	return obj
}

func snapshotHierarchy(hf HierarchyField) ir.Object {
	levels := make(ir.Array, 0, len(hf.Levels))
	for _, lf := range hf.Levels {
		levels = append(levels, snapshotLevel(lf))
	}
	return ir.Object{
		"dimension": ir.String(hf.Dimension.Name),
		"hierarchy": ir.String(hf.Hierarchy.Name),
		"levels":    levels,
	}
}

func snapshotLevel(lf LevelField) ir.Object {
	obj := ir.Object{
		"level":     ir.String(lf.Level.Name),
		"drilldown": ir.Bool(lf.IsDrilldown),
	}
	if len(lf.MembersInclude) > 0 {
		obj["include"] = ir.Strings(lf.MembersInclude)
	}
	if len(lf.MembersExclude) > 0 {
		obj["exclude"] = ir.Strings(lf.MembersExclude)
	}
	if len(lf.Properties) > 0 {
		names := make([]string, len(lf.Properties))
		for i, p := range lf.Properties {
			names[i] = p.Name
		}
		obj["properties"] = ir.Strings(names)
	}
	if lf.Caption != nil {
		obj["caption"] = ir.String(lf.Caption.Name)
	}
	if lf.TimeRestriction != nil {
		obj["time"] = snapshotTime(lf.TimeRestriction)
	}
	return obj
}

func snapshotTime(t *request.TimeRestriction) ir.Object {
	obj := ir.Object{
		"granularity": ir.String(string(t.Granularity)),
		"bound":       ir.String(string(t.Bound)),
	}
	switch t.Bound {
	case request.TimeLatest, request.TimeOldest:
		obj["n"] = ir.Int(t.N)
	case request.TimeRange:
		obj["from"] = ir.String(t.From)
		obj["to"] = ir.String(t.To)
	}
	return obj
}

func snapshotMeasure(mf MeasureField) ir.Object {
	obj := ir.Object{
		"measure": ir.String(mf.Measure.Name),
		"output":  ir.Bool(mf.IsMeasure),
	}
	if mf.Measure.IsSubmeasure() {
		obj["parent"] = ir.String(mf.Measure.Parent().Name)
	}
	if mf.Constraint1 != nil {
		obj["constraint1"] = ir.String(mf.Constraint1.String())
	}
	if mf.Constraint2 != nil {
		obj["constraint2"] = ir.String(mf.Constraint2.String())
		obj["joint"] = ir.String(string(mf.Joint))
	}
	if mf.WithRanking != "" {
		obj["ranking"] = ir.String(string(mf.WithRanking))
	}
	return obj
}

func snapshotPagination(p request.Pagination) ir.Object {
	return ir.Object{
		"limit":  ir.Int(p.Limit),
		"offset": ir.Int(p.Offset),
	}
}
