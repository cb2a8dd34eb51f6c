package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tesseract/internal/schema"
)

func validCube() *schema.Cube {
	return &schema.Cube{
		Name:  "sales",
		Table: "sales_fact",
		Dimensions: []*schema.Dimension{
			{
				Name:       "time",
				Type:       schema.DimensionTime,
				ForeignKey: "date_id",
				Hierarchies: []*schema.Hierarchy{
					{
						Name:  "calendar",
						Table: "dim_date",
						Levels: []*schema.Level{
							{Name: "Year", KeyColumn: "year", Granularity: schema.GranularityYear},
							{Name: "Month", KeyColumn: "month_id", Granularity: schema.GranularityMonth},
						},
					},
				},
			},
		},
		Measures: []*schema.Measure{
			{Name: "amount", Column: "amount", Aggregator: schema.AggregatorSum},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	def := &Definition{DefaultLocale: "en", Cubes: []*schema.Cube{validCube()}}
	assert.Empty(t, Validate(def))

	s, err := def.Build()
	require.NoError(t, err)
	_, err = s.GetCube("sales")
	assert.NoError(t, err)
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(def *Definition)
		want   string
	}{
		{"no cubes", func(d *Definition) { d.Cubes = nil }, ErrNoCubes},
		{"invalid locale", func(d *Definition) { d.DefaultLocale = "not a locale!" }, ErrInvalidLocale},
		{"duplicate cube", func(d *Definition) { d.Cubes = append(d.Cubes, validCube()) }, ErrDuplicateName},
		{"cube without table", func(d *Definition) { d.Cubes[0].Table = "" }, ErrCubeNoTable},
		{"bad dimension type", func(d *Definition) { d.Cubes[0].Dimensions[0].Type = "spatial" }, ErrInvalidDimensionType},
		{"dimension without hierarchy", func(d *Definition) { d.Cubes[0].Dimensions[0].Hierarchies = nil }, ErrDimensionNoHierarchy},
		{"unknown default hierarchy", func(d *Definition) { d.Cubes[0].Dimensions[0].DefaultHierarchyName = "fiscal" }, ErrUnknownDefaultHierarchy},
		{"empty hierarchy", func(d *Definition) { d.Cubes[0].Dimensions[0].Hierarchies[0].Levels = nil }, ErrEmptyHierarchy},
		{"default member outside hierarchy", func(d *Definition) {
			d.Cubes[0].Dimensions[0].Hierarchies[0].DefaultMember = &schema.MemberRef{Level: "Day", Key: "1"}
		}, ErrDefaultMemberOutside},
		{"missing foreign key", func(d *Definition) { d.Cubes[0].Dimensions[0].ForeignKey = "" }, ErrMissingForeignKey},
		{"level without key", func(d *Definition) { d.Cubes[0].Dimensions[0].Hierarchies[0].Levels[0].KeyColumn = "" }, ErrLevelNoKey},
		{"unknown granularity", func(d *Definition) { d.Cubes[0].Dimensions[0].Hierarchies[0].Levels[0].Granularity = "decade" }, ErrInvalidGranularity},
		{"granularity outside time dimension", func(d *Definition) { d.Cubes[0].Dimensions[0].Type = schema.DimensionStandard }, ErrGranularityNotTime},
		{"unknown aggregator", func(d *Definition) { d.Cubes[0].Measures[0].Aggregator = "median" }, ErrUnknownAggregator},
		{"measure without column", func(d *Definition) { d.Cubes[0].Measures[0].Column = "" }, ErrMeasureNoColumn},
		{"nested submeasure", func(d *Definition) {
			d.Cubes[0].Measures[0].Submeasures = []*schema.Measure{{
				Name: "share", Column: "share", Aggregator: schema.AggregatorAvg,
				Submeasures: []*schema.Measure{{Name: "share_moe", Column: "moe", Aggregator: schema.AggregatorMax}},
			}}
		}, ErrNestedSubmeasure},
		{"duplicate level", func(d *Definition) {
			hie := d.Cubes[0].Dimensions[0].Hierarchies[0]
			hie.Levels = append(hie.Levels, &schema.Level{Name: "Year", KeyColumn: "y2"})
		}, ErrDuplicateName},
		{"duplicate submeasure name", func(d *Definition) {
			d.Cubes[0].Measures[0].Submeasures = []*schema.Measure{{Name: "amount", Column: "a", Aggregator: schema.AggregatorMax}}
		}, ErrDuplicateName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &Definition{DefaultLocale: "en", Cubes: []*schema.Cube{validCube()}}
			tt.mutate(def)
			assert.Contains(t, codes(Validate(def)), tt.want)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cube := validCube()
	cube.Table = ""
	cube.Measures[0].Aggregator = "median"
	cube.Dimensions[0].DefaultHierarchyName = "fiscal"

	errs := Validate(&Definition{Cubes: []*schema.Cube{cube}})
	assert.Equal(t, []string{ErrCubeNoTable, ErrUnknownDefaultHierarchy, ErrUnknownAggregator}, codes(errs))
	assert.Equal(t, "cube.sales.measures[0]", errs[2].Field)
}

func TestValidate_LineNumbers(t *testing.T) {
	v := compileString(t, `
cube: c: {
	table: "fact"
	measures: [
		{name: "m", column: "m", aggregator: "median"},
	]
}
`)
	def, err := CompileDefinition(v)
	require.NoError(t, err)

	errs := Validate(def)
	require.Len(t, errs, 1)
	assert.Equal(t, 5, errs[0].Line)
	assert.Contains(t, errs[0].Error(), "[E220] line 5: cube.c.measures[0]")
}

func TestValidationError_Format(t *testing.T) {
	e := ValidationError{Field: "cube.c", Message: "boom", Code: ErrCubeNoTable}
	assert.Equal(t, "[E203] cube.c: boom", e.Error())
}
