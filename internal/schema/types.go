package schema

import (
	"fmt"
	"maps"
)

// DimensionType distinguishes time dimensions from regular ones.
type DimensionType string

const (
	DimensionStandard DimensionType = "standard"
	DimensionTime     DimensionType = "time"
)

// Granularity identifies the time scale of a level in a time dimension.
type Granularity string

const (
	GranularityYear    Granularity = "year"
	GranularityQuarter Granularity = "quarter"
	GranularityMonth   Granularity = "month"
	GranularityWeek    Granularity = "week"
	GranularityDay     Granularity = "day"
)

// ValidGranularities lists the accepted time scales.
var ValidGranularities = map[Granularity]bool{
	GranularityYear:    true,
	GranularityQuarter: true,
	GranularityMonth:   true,
	GranularityWeek:    true,
	GranularityDay:     true,
}

// Aggregator is the aggregation function applied to a measure column.
type Aggregator string

const (
	AggregatorSum           Aggregator = "sum"
	AggregatorCount         Aggregator = "count"
	AggregatorCountDistinct Aggregator = "count_distinct"
	AggregatorAvg           Aggregator = "avg"
	AggregatorMin           Aggregator = "min"
	AggregatorMax           Aggregator = "max"
)

// ValidAggregators lists the accepted aggregation functions.
var ValidAggregators = map[Aggregator]bool{
	AggregatorSum:           true,
	AggregatorCount:         true,
	AggregatorCountDistinct: true,
	AggregatorAvg:           true,
	AggregatorMin:           true,
	AggregatorMax:           true,
}

// EntityKind names the kind of a resolvable entity in error messages.
type EntityKind string

const (
	KindLevel     EntityKind = "Level"
	KindMeasure   EntityKind = "Measure"
	KindProperty  EntityKind = "Property"
	KindTimeScale EntityKind = "TimeScale"
	KindField     EntityKind = "Field"
)

// Entity is a named schema node that can appear in a query's entity map.
// Only Level, Property and Measure implement it.
type Entity interface {
	EntityName() string
	EntityKind() EntityKind
}

// Cube is the top-level queryable unit: dimensions and measures sharing a fact table.
type Cube struct {
	Name        string
	Table       string
	Public      bool
	Roles       []string
	Annotations map[string]string
	Dimensions  []*Dimension
	Measures    []*Measure

	schema     *Schema
	dimensions map[string]*Dimension
	levels     map[string]*Level
	properties map[string]*Property
	measures   map[string]*Measure // top-level and submeasures
	topLevel   map[string]*Measure
}

// Dimension is an axis along which a cube can be sliced.
type Dimension struct {
	Name                 string
	Type                 DimensionType
	ForeignKey           string
	DefaultHierarchyName string
	Hierarchies          []*Hierarchy

	cube *Cube
}

// Hierarchy is one ordered set of levels within a dimension.
type Hierarchy struct {
	Name          string
	Table         string
	PrimaryKey    string
	Levels        []*Level // shallow to deep
	DefaultMember *MemberRef

	dimension *Dimension
}

// MemberRef points at a single member of a level.
type MemberRef struct {
	Level string
	Key   string
}

// Level is a single granularity step within a hierarchy.
type Level struct {
	Name        string
	KeyColumn   string
	NameColumns map[string]string // locale -> column; "" is locale-neutral
	Granularity Granularity
	Properties  []*Property

	hierarchy *Hierarchy
	depth     int
}

// Property is an additional attribute column of a level.
type Property struct {
	Name    string
	Columns map[string]string // locale -> column; "" is locale-neutral

	level *Level
}

// Measure is an aggregatable fact-table column.
type Measure struct {
	Name        string
	Column      string
	Aggregator  Aggregator
	Submeasures []*Measure
	Annotations map[string]string

	cube   *Cube
	parent *Measure
	subs   map[string]*Measure
}

// link sets back-pointers and builds the flattened entity index.
func (c *Cube) link(s *Schema) error {
	c.schema = s
	c.dimensions = make(map[string]*Dimension, len(c.Dimensions))
	c.levels = make(map[string]*Level)
	c.properties = make(map[string]*Property)
	c.measures = make(map[string]*Measure)
	c.topLevel = make(map[string]*Measure, len(c.Measures))

	for _, dim := range c.Dimensions {
		if _, dup := c.dimensions[dim.Name]; dup {
			return fmt.Errorf("schema: duplicate dimension %q in cube %q", dim.Name, c.Name)
		}
		dim.cube = c
		c.dimensions[dim.Name] = dim

		for _, hie := range dim.Hierarchies {
			hie.dimension = dim
			for depth, lvl := range hie.Levels {
				if _, dup := c.levels[lvl.Name]; dup {
					return fmt.Errorf("schema: duplicate level %q in cube %q", lvl.Name, c.Name)
				}
				lvl.hierarchy = hie
				lvl.depth = depth
				c.levels[lvl.Name] = lvl

				for _, prop := range lvl.Properties {
					if _, dup := c.properties[prop.Name]; dup {
						return fmt.Errorf("schema: duplicate property %q in cube %q", prop.Name, c.Name)
					}
					prop.level = lvl
					c.properties[prop.Name] = prop
				}
			}
		}
	}

	for _, msr := range c.Measures {
		if err := c.indexMeasure(msr, nil); err != nil {
			return err
		}
		c.topLevel[msr.Name] = msr
	}

	return nil
}

func (c *Cube) indexMeasure(msr, parent *Measure) error {
	if _, dup := c.measures[msr.Name]; dup {
		return fmt.Errorf("schema: duplicate measure %q in cube %q", msr.Name, c.Name)
	}
	if parent != nil && len(msr.Submeasures) > 0 {
		return fmt.Errorf("schema: submeasure %q in cube %q declares submeasures", msr.Name, c.Name)
	}
	msr.cube = c
	msr.parent = parent
	msr.subs = make(map[string]*Measure, len(msr.Submeasures))
	c.measures[msr.Name] = msr

	for _, sub := range msr.Submeasures {
		if err := c.indexMeasure(sub, msr); err != nil {
			return err
		}
		msr.subs[sub.Name] = sub
	}
	return nil
}

// Schema returns the schema that owns the cube.
func (c *Cube) Schema() *Schema { return c.schema }

// Dimension returns the dimension with the given name.
func (c *Cube) Dimension(name string) (*Dimension, bool) {
	d, ok := c.dimensions[name]
	return d, ok
}

// Level returns the level with the given name from any hierarchy of the cube.
func (c *Cube) Level(name string) (*Level, bool) {
	l, ok := c.levels[name]
	return l, ok
}

// Property returns the property with the given name from any level of the cube.
func (c *Cube) Property(name string) (*Property, bool) {
	p, ok := c.properties[name]
	return p, ok
}

// Measure returns the measure or submeasure with the given name.
func (c *Cube) Measure(name string) (*Measure, bool) {
	m, ok := c.measures[name]
	return m, ok
}

// TopLevelMeasure returns the measure with the given name only if it is not a submeasure.
func (c *Cube) TopLevelMeasure(name string) (*Measure, bool) {
	m, ok := c.topLevel[name]
	return m, ok
}

// MeasureMap returns a name-keyed copy of the top-level measures.
func (c *Cube) MeasureMap() map[string]*Measure {
	return maps.Clone(c.topLevel)
}

// TimeLevel returns the level with the given granularity.
//
// Time dimensions are searched in declaration order; within a dimension the
// default hierarchy is searched before the others.
func (c *Cube) TimeLevel(g Granularity) (*Level, bool) {
	for _, dim := range c.Dimensions {
		if dim.Type != DimensionTime {
			continue
		}
		def := dim.DefaultHierarchy()
		if lvl, ok := def.levelWithGranularity(g); ok {
			return lvl, true
		}
		for _, hie := range dim.Hierarchies {
			if hie == def {
				continue
			}
			if lvl, ok := hie.levelWithGranularity(g); ok {
				return lvl, true
			}
		}
	}
	return nil, false
}

// Cube returns the cube that owns the dimension.
func (d *Dimension) Cube() *Cube { return d.cube }

// Hierarchy returns the hierarchy with the given name.
func (d *Dimension) Hierarchy(name string) (*Hierarchy, bool) {
	for _, hie := range d.Hierarchies {
		if hie.Name == name {
			return hie, true
		}
	}
	return nil, false
}

// DefaultHierarchy returns the declared default hierarchy, or the first one
// when no default is declared.
func (d *Dimension) DefaultHierarchy() *Hierarchy {
	if hie, ok := d.Hierarchy(d.DefaultHierarchyName); ok {
		return hie
	}
	if len(d.Hierarchies) == 0 {
		return nil
	}
	return d.Hierarchies[0]
}

// Dimension returns the dimension that owns the hierarchy.
func (h *Hierarchy) Dimension() *Dimension { return h.dimension }

// Level returns the level with the given name in this hierarchy.
func (h *Hierarchy) Level(name string) (*Level, bool) {
	for _, lvl := range h.Levels {
		if lvl.Name == name {
			return lvl, true
		}
	}
	return nil, false
}

// DefaultMemberLevel resolves the default member reference.
// It returns false when the hierarchy declares no default member or the
// referenced level is not part of the hierarchy.
func (h *Hierarchy) DefaultMemberLevel() (*Level, string, bool) {
	if h == nil || h.DefaultMember == nil {
		return nil, "", false
	}
	lvl, ok := h.Level(h.DefaultMember.Level)
	if !ok {
		return nil, "", false
	}
	return lvl, h.DefaultMember.Key, true
}

func (h *Hierarchy) levelWithGranularity(g Granularity) (*Level, bool) {
	if h == nil {
		return nil, false
	}
	for _, lvl := range h.Levels {
		if lvl.Granularity == g {
			return lvl, true
		}
	}
	return nil, false
}

func (l *Level) EntityName() string     { return l.Name }
func (l *Level) EntityKind() EntityKind { return KindLevel }

// Hierarchy returns the hierarchy that owns the level.
func (l *Level) Hierarchy() *Hierarchy { return l.hierarchy }

// Dimension returns the dimension that owns the level.
func (l *Level) Dimension() *Dimension { return l.hierarchy.dimension }

// Depth is the zero-based position of the level in its hierarchy (0 = shallowest).
func (l *Level) Depth() int { return l.depth }

// NameColumn returns the localized caption column of the level.
func (l *Level) NameColumn(locale string) (string, bool) {
	return localizedColumn(l.NameColumns, locale, l.defaultLocale())
}

// HasDistinctNameColumn reports whether the level's caption column for the
// locale differs from its key column.
func (l *Level) HasDistinctNameColumn(locale string) bool {
	col, ok := l.NameColumn(locale)
	return ok && col != l.KeyColumn
}

func (l *Level) defaultLocale() string {
	if l.hierarchy == nil || l.hierarchy.dimension == nil || l.hierarchy.dimension.cube == nil {
		return ""
	}
	if s := l.hierarchy.dimension.cube.schema; s != nil {
		return s.DefaultLocale
	}
	return ""
}

func (p *Property) EntityName() string     { return p.Name }
func (p *Property) EntityKind() EntityKind { return KindProperty }

// Level returns the level that declares the property.
func (p *Property) Level() *Level { return p.level }

// Column returns the localized column of the property.
func (p *Property) Column(locale string) (string, bool) {
	var def string
	if p.level != nil {
		def = p.level.defaultLocale()
	}
	return localizedColumn(p.Columns, locale, def)
}

func (m *Measure) EntityName() string     { return m.Name }
func (m *Measure) EntityKind() EntityKind { return KindMeasure }

// Cube returns the cube that owns the measure.
func (m *Measure) Cube() *Cube { return m.cube }

// Parent returns the top-level measure of a submeasure, nil otherwise.
func (m *Measure) Parent() *Measure { return m.parent }

// IsSubmeasure reports whether the measure is nested under another measure.
func (m *Measure) IsSubmeasure() bool { return m.parent != nil }

// SubmeasureMap returns a name-keyed copy of the declared submeasures.
func (m *Measure) SubmeasureMap() map[string]*Measure {
	return maps.Clone(m.subs)
}
