package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tesseract/internal/schema"
	"github.com/roach88/tesseract/internal/testutil"
)

type access struct {
	cube  string
	roles []string
}

func (a access) CubeName() string    { return a.cube }
func (a access) RoleNames() []string { return a.roles }

func TestNew_LinksGraph(t *testing.T) {
	s := testutil.SalesSchema(t)

	cube, err := s.GetCube("sales")
	require.NoError(t, err)
	assert.Same(t, s, cube.Schema())

	city, ok := cube.Level("City")
	require.True(t, ok)
	assert.Equal(t, 2, city.Depth())
	assert.Equal(t, "standard", city.Hierarchy().Name)
	assert.Equal(t, "geography", city.Dimension().Name)
	assert.Same(t, cube, city.Dimension().Cube())

	pop, ok := cube.Property("Population")
	require.True(t, ok)
	assert.Same(t, city, pop.Level())

	moe, ok := cube.Measure("sales_amount_moe")
	require.True(t, ok)
	assert.True(t, moe.IsSubmeasure())
	assert.Equal(t, "sales_amount", moe.Parent().Name)
	assert.Same(t, cube, moe.Cube())
}

func TestNew_RejectsDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		cubes func() []*schema.Cube
		want  string
	}{
		{
			name: "cube",
			cubes: func() []*schema.Cube {
				return []*schema.Cube{testutil.SalesCube(), testutil.SalesCube()}
			},
			want: `duplicate cube name "sales"`,
		},
		{
			name: "level across hierarchies",
			cubes: func() []*schema.Cube {
				c := testutil.SalesCube()
				c.Dimensions[0].Hierarchies[1].Levels[0].Name = "Country"
				return []*schema.Cube{c}
			},
			want: `duplicate level "Country"`,
		},
		{
			name: "submeasure shadows measure",
			cubes: func() []*schema.Cube {
				c := testutil.SalesCube()
				c.Measures[0].Submeasures[0].Name = "profit"
				return []*schema.Cube{c}
			},
			want: `duplicate measure "profit"`,
		},
		{
			name: "property",
			cubes: func() []*schema.Cube {
				c := testutil.SalesCube()
				c.Dimensions[0].Hierarchies[0].Levels[0].Properties[0].Name = "Population"
				return []*schema.Cube{c}
			},
			want: `duplicate property "Population"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.New("en", tt.cubes()...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetCube_NotFound(t *testing.T) {
	s := testutil.SalesSchema(t)

	_, err := s.GetCube("inventory")
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrCubeNotFound))
	assert.Contains(t, err.Error(), `"inventory"`)
}

func TestIsAuthorized(t *testing.T) {
	s := testutil.SalesSchema(t)

	tests := []struct {
		name string
		req  access
		want bool
	}{
		{"public cube without roles", access{cube: "sales"}, true},
		{"restricted cube without roles", access{cube: "payroll"}, false},
		{"restricted cube with wrong role", access{cube: "payroll", roles: []string{"sales"}}, false},
		{"restricted cube with matching role", access{cube: "payroll", roles: []string{"guest", "hr"}}, true},
		{"unknown cube", access{cube: "inventory"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsAuthorized(tt.req))
		})
	}
}

func TestCube_MeasureMaps(t *testing.T) {
	s := testutil.SalesSchema(t)
	cube, err := s.GetCube("sales")
	require.NoError(t, err)

	top := cube.MeasureMap()
	assert.Len(t, top, 3)
	assert.Contains(t, top, "sales_amount")
	assert.NotContains(t, top, "sales_amount_moe")

	_, ok := cube.TopLevelMeasure("sales_amount_moe")
	assert.False(t, ok)

	// Copies: callers cannot corrupt the index.
	delete(top, "profit")
	_, ok = cube.TopLevelMeasure("profit")
	assert.True(t, ok)

	amount, _ := cube.Measure("sales_amount")
	subs := amount.SubmeasureMap()
	assert.Len(t, subs, 2)
	assert.Contains(t, subs, "sales_amount_share")
}

func TestCube_TimeLevel(t *testing.T) {
	s := testutil.SalesSchema(t)
	cube, err := s.GetCube("sales")
	require.NoError(t, err)

	lvl, ok := cube.TimeLevel(schema.GranularityMonth)
	require.True(t, ok)
	assert.Equal(t, "Month", lvl.Name)

	_, ok = cube.TimeLevel(schema.GranularityWeek)
	assert.False(t, ok)
}

func TestDimension_DefaultHierarchy(t *testing.T) {
	s := testutil.SalesSchema(t)
	cube, _ := s.GetCube("sales")

	geo, ok := cube.Dimension("geography")
	require.True(t, ok)
	assert.Equal(t, "standard", geo.DefaultHierarchy().Name)

	// No declared default: first hierarchy wins.
	product, _ := cube.Dimension("product")
	assert.Equal(t, "product", product.DefaultHierarchy().Name)

	currency, _ := cube.Dimension("currency")
	lvl, key, ok := currency.DefaultHierarchy().DefaultMemberLevel()
	require.True(t, ok)
	assert.Equal(t, "Currency", lvl.Name)
	assert.Equal(t, "USD", key)

	_, _, ok = geo.DefaultHierarchy().DefaultMemberLevel()
	assert.False(t, ok)
}

func TestLevel_NameColumn(t *testing.T) {
	s := testutil.SalesSchema(t)
	cube, _ := s.GetCube("sales")
	country, _ := cube.Level("Country")
	state, _ := cube.Level("State")
	city, _ := cube.Level("City")
	year, _ := cube.Level("Year")

	tests := []struct {
		name   string
		level  *schema.Level
		locale string
		want   string
		ok     bool
	}{
		{"exact", country, "es", "country_name_es", true},
		{"base language", country, "es-MX", "country_name_es", true},
		{"schema default", state, "fr", "state_name", true},
		{"locale neutral", city, "de", "city_id", true},
		{"none", year, "en", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, ok := tt.level.NameColumn(tt.locale)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, col)
		})
	}

	assert.True(t, country.HasDistinctNameColumn("en"))
	assert.False(t, city.HasDistinctNameColumn("en"))
	assert.False(t, year.HasDistinctNameColumn("en"))
}

func TestProperty_Column(t *testing.T) {
	s := testutil.SalesSchema(t)
	cube, _ := s.GetCube("sales")
	label, _ := cube.Property("State Label")

	col, ok := label.Column("es-AR")
	require.True(t, ok)
	assert.Equal(t, "state_label_es", col)

	col, ok = label.Column("pt")
	require.True(t, ok)
	assert.Equal(t, "state_label", col)
}

func TestEntityKinds(t *testing.T) {
	s := testutil.SalesSchema(t)
	cube, _ := s.GetCube("sales")
	lvl, _ := cube.Level("Country")
	prop, _ := cube.Property("SKU")
	msr, _ := cube.Measure("profit")

	for _, tt := range []struct {
		entity schema.Entity
		kind   schema.EntityKind
		name   string
	}{
		{lvl, schema.KindLevel, "Country"},
		{prop, schema.KindProperty, "SKU"},
		{msr, schema.KindMeasure, "profit"},
	} {
		assert.Equal(t, tt.kind, tt.entity.EntityKind())
		assert.Equal(t, tt.name, tt.entity.EntityName())
	}
}
