package queryir

import (
	"maps"

	"github.com/roach88/tesseract/internal/schema"
)

// IDSuffix is appended to a level name for the key column entry of a level
// whose label column differs from its key column.
const IDSuffix = " ID"

// Source describes where the measures of a query come from.
type Source struct {
	Cube        string
	Measures    []string
	Annotations map[string]string
}

// EntityMap covers every drilldown level (plus "<name> ID" when its label
// column differs from its key column), every selected property and every
// output measure.
func (q *DataQuery) EntityMap() map[string]schema.Entity {
	m := make(map[string]schema.Entity)
	for _, hf := range q.FieldsQualitative {
		for _, lf := range hf.Levels {
			if lf.IsDrilldown {
				addLevel(m, lf, q.Locale)
			}
		}
	}
	for _, prop := range q.SelectedProperties() {
		m[prop.Name] = prop
	}
	for _, mf := range q.FieldsQuantitative {
		if mf.IsMeasure {
			m[mf.Measure.Name] = mf.Measure
		}
	}
	return m
}

// SelectedProperties returns the properties output as columns: those carried
// by drilldown levels, in field order. Requested properties of cut-only or
// unselected levels are not among them.
func (q *DataQuery) SelectedProperties() []*schema.Property {
	var out []*schema.Property
	for _, hf := range q.FieldsQualitative {
		for _, lf := range hf.Drilldowns() {
			out = append(out, lf.Properties...)
		}
	}
	return out
}

// Sources returns one descriptor per referenced cube. A query targets a
// single cube, so there is always exactly one.
func (q *DataQuery) Sources() []Source {
	measures := make([]string, 0, len(q.FieldsQuantitative))
	for _, mf := range q.Measures() {
		measures = append(measures, mf.Measure.Name)
	}
	return []Source{{
		Cube:        q.Cube.Name,
		Measures:    measures,
		Annotations: maps.Clone(q.Cube.Annotations),
	}}
}

// EntityMap covers every selected level and its requested properties.
func (q *MembersQuery) EntityMap() map[string]schema.Entity {
	m := make(map[string]schema.Entity)
	for _, lf := range q.Hierarchy.Levels {
		addLevel(m, lf, q.Locale)
		for _, prop := range lf.Properties {
			m[prop.Name] = prop
		}
	}
	return m
}

func addLevel(m map[string]schema.Entity, lf LevelField, locale string) {
	m[lf.Name()] = lf.Level
	if lf.HasIDColumn(locale) {
		m[lf.Name()+IDSuffix] = lf.Level
	}
}
