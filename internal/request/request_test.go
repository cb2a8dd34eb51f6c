package request

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tesseract/internal/schema"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{"gt.100", Single(OpGt, 100)},
		{"lt.-1.5", Single(OpLt, -1.5)},
		{"gte.10.and.lt.20", Pair(Constraint{OpGte, 10}, JointAnd, Constraint{OpLt, 20})},
		{"eq.5.or.eq.7", Pair(Constraint{OpEq, 5}, JointOr, Constraint{OpEq, 7})},
		{"gt.1.5.and.lte.2.25", Pair(Constraint{OpGt, 1.5}, JointAnd, Constraint{OpLte, 2.25})},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	for _, in := range []string{"", "gt", "between.1", "gt.abc", "gt.1.and.zz.2", "gt.NaN", "lt.inf", "gte.1.and.lte.-Inf"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseFilter(in)
			assert.Error(t, err)
		})
	}
}

func TestConstraint_Validate(t *testing.T) {
	assert.NoError(t, Constraint{Operator: OpLte, Value: -2.5}.Validate())
	assert.ErrorContains(t, Constraint{Value: 1}.Validate(), "unknown operator")
	assert.ErrorContains(t, Constraint{Operator: "between", Value: 1}.Validate(), "unknown operator")
	assert.ErrorContains(t, Constraint{Operator: OpGt, Value: math.NaN()}.Validate(), "finite")
	assert.ErrorContains(t, Constraint{Operator: OpGt, Value: math.Inf(-1)}.Validate(), "finite")
}

func TestParents(t *testing.T) {
	assert.False(t, ParentsNone().Includes("City"))
	assert.True(t, ParentsNone().IsZero())
	assert.True(t, ParentsAll().Includes("City"))
	assert.True(t, ParentsAll().IsAll())

	p := ParentsOf("City", "City", " ")
	assert.True(t, p.Includes("City"))
	assert.False(t, p.Includes("State"))
	assert.Equal(t, []string{"City"}, p.Levels())

	var zero Parents
	assert.Equal(t, ParentsNone(), zero)
}

func TestRanking(t *testing.T) {
	assert.Equal(t, RankingModeNone, RankingNone().Mode())
	assert.Equal(t, DirectionDesc, RankingAll("").Direction())

	m := map[string]Direction{"profit": DirectionAsc}
	r := RankingPerMeasure(m)
	m["profit"] = DirectionDesc
	assert.Equal(t, DirectionAsc, r.PerMeasure()["profit"], "constructor copies its input")

	assert.True(t, RankingPerMeasure(nil).IsZero())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" DESC ")
	require.NoError(t, err)
	assert.Equal(t, DirectionDesc, d)

	_, err = ParseDirection("up")
	assert.Error(t, err)
}

func TestDecodeData(t *testing.T) {
	doc := `
cube: sales
locale: es
drilldowns: [City, City, " State "]
measures: [sales_amount, profit]
properties: [Population]
captions: [State Label]
cuts:
  State: [CA, NY]
  Country:
    include: [US]
    exclude: [MX]
filters:
  profit: gte.10.and.lt.20
parents: [City]
ranking:
  profit: asc
pagination: {limit: 10, offset: 20}
sorting: profit.desc
time: {granularity: month, latest: 3}
roles: [analyst]
`
	req, err := DecodeData([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "sales", req.Cube)
	assert.Equal(t, "es", req.Locale)
	assert.Equal(t, []string{"City", "State"}, req.Drilldowns)
	assert.Equal(t, Cut{Include: []string{"CA", "NY"}}, req.Cuts["State"])
	assert.Equal(t, Cut{Include: []string{"US"}, Exclude: []string{"MX"}}, req.Cuts["Country"])
	assert.Equal(t, Pair(Constraint{OpGte, 10}, JointAnd, Constraint{OpLt, 20}), req.Filters["profit"])
	assert.Equal(t, ParentsOf("City"), req.Parents)
	assert.Equal(t, RankingPerMeasure(map[string]Direction{"profit": DirectionAsc}), req.Ranking)
	assert.Equal(t, Pagination{Limit: 10, Offset: 20}, req.Pagination)
	assert.Equal(t, &Sorting{Field: "profit", Direction: DirectionDesc}, req.Sorting)
	assert.Equal(t, Latest(schema.GranularityMonth, 3), req.Time)
	assert.Equal(t, []string{"analyst"}, req.RoleNames())
}

func TestDecodeData_Directives(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		parents Parents
		ranking Ranking
	}{
		{"absent", "cube: sales\n", ParentsNone(), RankingNone()},
		{"bools true", "cube: sales\nparents: true\nranking: true\n", ParentsAll(), RankingAll(DirectionDesc)},
		{"bools false", "cube: sales\nparents: false\nranking: false\n", ParentsNone(), RankingNone()},
		{"direction", "cube: sales\nranking: asc\n", ParentsNone(), RankingAll(DirectionAsc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeData([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.parents, req.Parents)
			assert.Equal(t, tt.ranking, req.Ranking)
		})
	}
}

func TestDecodeData_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "cube: sales\ndrilldown: [City]\n", "drilldown"},
		{"bad filter", "cube: sales\nfilters: {profit: huge}\n", "invalid filter"},
		{"bad ranking", "cube: sales\nranking: {profit: up}\n", "invalid direction"},
		{"bad parents", "cube: sales\nparents: {City: true}\n", "parents must be"},
		{"two time bounds", "cube: sales\ntime: {granularity: year, latest: 1, oldest: 1}\n", "exactly one"},
		{"short range", "cube: sales\ntime: {granularity: year, range: [2020]}\n", "two keys"},
		{"unknown cut key", "cube: sales\ncuts: {State: {only: [CA]}}\n", "only"},
		{"members kind", "kind: members\ncube: sales\n", "not a data request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeData([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_Kinds(t *testing.T) {
	r, err := Decode([]byte("cube: sales\ndrilldowns: [Year]\n"))
	require.NoError(t, err)
	assert.Equal(t, KindData, r.Kind())

	r, err = Decode([]byte("kind: members\ncube: sales\nlevel: State\nparents: true\nsearch: cal\n"))
	require.NoError(t, err)
	require.Equal(t, KindMembers, r.Kind())
	m := r.(MembersRequest)
	assert.Equal(t, "State", m.Level)
	assert.True(t, m.Parents)
	assert.Equal(t, "cal", m.Search)

	_, err = Decode([]byte("kind: report\ncube: sales\n"))
	assert.ErrorContains(t, err, `unknown kind "report"`)
}

func TestEncode_RoundTrip(t *testing.T) {
	in := DataRequest{
		Cube:       "sales",
		Drilldowns: []string{"City"},
		Measures:   []string{"sales_amount"},
		Cuts:       map[string]Cut{"State": {Include: []string{"CA"}}},
		Filters:    map[string]Filter{"sales_amount": Single(OpGt, 100)},
		Parents:    ParentsAll(),
		Ranking:    RankingPerMeasure(map[string]Direction{"sales_amount": DirectionAsc}),
		Time:       Between(schema.GranularityYear, "2020", "2022"),
	}

	data, err := Encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: data")
	assert.Contains(t, string(data), "sales_amount: gt.100")

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	again, err := Encode(out)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestEncode_Members(t *testing.T) {
	in := MembersRequest{Cube: "sales", Level: "State", Parents: true}
	data, err := Encode(&in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNormalize(t *testing.T) {
	req := DataRequest{
		Cube:     " sales ",
		Measures: []string{"profit", "", "profit", "quantity"},
		Cuts:     map[string]Cut{" State": {Include: []string{"CA", "CA"}}},
	}.Normalize()

	assert.Equal(t, "sales", req.Cube)
	assert.Equal(t, []string{"profit", "quantity"}, req.Measures)
	assert.Equal(t, []string{"CA"}, req.Cuts["State"].Include)
	assert.Nil(t, req.Drilldowns)
}
