package resolver

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/roach88/tesseract/internal/queryir"
	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/schema"
)

// Resolver turns requests into resolved queries against one schema.
//
// Resolution is a pure, synchronous function of the request and the schema:
// no I/O, no logging, no retries. A Resolver holds no mutable state and may be
// used from any number of goroutines.
type Resolver struct {
	schema *schema.Schema
}

// New creates a Resolver over s. The schema must not be mutated afterwards.
func New(s *schema.Schema) *Resolver {
	return &Resolver{schema: s}
}

// Schema returns the schema the resolver reads.
func (r *Resolver) Schema() *schema.Schema { return r.schema }

// Resolve dispatches on the request type.
func (r *Resolver) Resolve(req request.Request) (queryir.Query, error) {
	var (
		q   queryir.Query
		err error
	)
	switch req := req.(type) {
	case request.DataRequest:
		q, err = r.Data(req)
	case *request.DataRequest:
		q, err = r.Data(*req)
	case request.MembersRequest:
		q, err = r.Members(req)
	case *request.MembersRequest:
		q, err = r.Members(*req)
	default:
		return nil, NewInvalidRequest("unsupported request type %T", req)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Data resolves a data request.
//
// Stages, each aborting the whole resolution on failure:
//
//  1. authorization
//  2. cube lookup and request sanity checks
//  3. entity resolution of levels, properties and the time scale
//  4. hierarchy consistency over the involved levels
//  5. default members for dimensions the request is silent about
//  6. level fields per selected hierarchy
//  7. ranking and measure fields
//  8. sorting
func (r *Resolver) Data(req request.DataRequest) (*queryir.DataQuery, error) {
	cube, locale, err := r.prepare(req, req.Locale, req.Pagination)
	if err != nil {
		return nil, err
	}
	if err := checkDataRequest(req); err != nil {
		return nil, err
	}

	drilldowns, err := ResolveLevels(cube, req.Drilldowns)
	if err != nil {
		return nil, err
	}
	cutNames := slices.Sorted(maps.Keys(req.Cuts))
	cutLevels, err := ResolveLevels(cube, cutNames)
	if err != nil {
		return nil, err
	}
	if _, err := ResolveLevels(cube, req.Parents.Levels()); err != nil {
		return nil, err
	}
	props, err := ResolveProperties(cube, req.Properties)
	if err != nil {
		return nil, err
	}
	if _, err := ResolveProperties(cube, req.Captions); err != nil {
		return nil, err
	}

	var timeLevel *schema.Level
	var timeRestriction *request.TimeRestriction
	if req.Time != nil {
		timeLevel, err = resolveTimeLevel(cube, req.Time.Granularity)
		if err != nil {
			return nil, err
		}
		tr := *req.Time
		timeRestriction = &tr
	}

	// Involved levels, in a fixed order so conflicts are reported deterministically.
	involved := make([]*schema.Level, 0, len(drilldowns)+len(cutLevels)+1)
	for _, name := range req.Drilldowns {
		involved = append(involved, drilldowns[name])
	}
	for _, name := range cutNames {
		involved = append(involved, cutLevels[name])
	}
	if timeLevel != nil {
		involved = append(involved, timeLevel)
	}

	sel, err := CheckHierarchies(involved)
	if err != nil {
		return nil, err
	}

	in := LevelInputs{
		Drilldowns: nameSet(req.Drilldowns),
		Involved:   make(map[string]bool, len(involved)),
		Cuts:       maps.Clone(req.Cuts),
		Properties: nameSet(req.Properties),
		Captions:   nameSet(req.Captions),
		Parents:    req.Parents,
		TimeLevel:  timeLevel,
		Time:       timeRestriction,
	}
	if in.Cuts == nil {
		in.Cuts = make(map[string]request.Cut)
	}
	for _, lvl := range involved {
		in.Involved[lvl.Name] = true
	}

	for _, dm := range DefaultMembers(cube, sel) {
		sel[dm.Level.Dimension()] = dm.Level.Hierarchy()
		in.Involved[dm.Level.Name] = true
		in.Cuts[dm.Level.Name] = request.Cut{Include: []string{dm.Key}}
	}

	var qualitative []queryir.HierarchyField
	for _, dim := range cube.Dimensions {
		hie, ok := sel[dim]
		if !ok {
			continue
		}
		if hf, ok := BuildHierarchyField(dim, hie, in); ok {
			qualitative = append(qualitative, hf)
		}
	}

	ranking, err := ResolveRanking(req.Ranking, req.Measures)
	if err != nil {
		return nil, err
	}
	quantitative, err := BuildMeasureFields(cube, req.Measures, req.Filters, ranking)
	if err != nil {
		return nil, err
	}

	q := &queryir.DataQuery{
		Cube:               cube,
		Locale:             locale,
		FieldsQualitative:  qualitative,
		FieldsQuantitative: quantitative,
		Properties:         orderedProperties(cube, props),
		Pagination:         req.Pagination,
	}

	if req.Sorting != nil {
		sorting, err := resolveSorting(q, *req.Sorting)
		if err != nil {
			return nil, err
		}
		q.Sorting = sorting
	}

	return q, nil
}

// Members resolves a members request. The requested level is a drilldown;
// with Parents, every shallower level of its hierarchy is one too. No default
// members are applied.
func (r *Resolver) Members(req request.MembersRequest) (*queryir.MembersQuery, error) {
	cube, locale, err := r.prepare(req, req.Locale, req.Pagination)
	if err != nil {
		return nil, err
	}
	if req.Level == "" {
		return nil, NewInvalidRequest("members request needs a level")
	}

	levels, err := ResolveLevels(cube, []string{req.Level})
	if err != nil {
		return nil, err
	}
	if _, err := ResolveProperties(cube, req.Properties); err != nil {
		return nil, err
	}
	if _, err := ResolveProperties(cube, req.Captions); err != nil {
		return nil, err
	}

	target := levels[req.Level]
	parents := request.ParentsNone()
	if req.Parents {
		parents = request.ParentsAll()
	}
	in := LevelInputs{
		Drilldowns: map[string]bool{target.Name: true},
		Involved:   map[string]bool{target.Name: true},
		Properties: nameSet(req.Properties),
		Captions:   nameSet(req.Captions),
		Parents:    parents,
	}

	hf, _ := BuildHierarchyField(target.Dimension(), target.Hierarchy(), in)
	return &queryir.MembersQuery{
		Cube:       cube,
		Locale:     locale,
		Hierarchy:  hf,
		Search:     strings.TrimSpace(req.Search),
		Pagination: req.Pagination,
	}, nil
}

// prepare runs the stages shared by both request types: authorization first,
// then cube lookup, locale and pagination checks.
func (r *Resolver) prepare(req schema.AccessRequest, locale string, page request.Pagination) (*schema.Cube, string, error) {
	if !r.schema.IsAuthorized(req) {
		return nil, "", NewNotAuthorized(req.CubeName())
	}
	if req.CubeName() == "" {
		return nil, "", NewInvalidRequest("request needs a cube")
	}
	cube, err := r.schema.GetCube(req.CubeName())
	if err != nil {
		return nil, "", NewCubeNotFound(req.CubeName(), err)
	}
	if page.Limit < 0 || page.Offset < 0 {
		return nil, "", NewInvalidRequest("pagination must not be negative (limit=%d, offset=%d)", page.Limit, page.Offset)
	}
	loc, err := resolveLocale(locale, r.schema.DefaultLocale)
	if err != nil {
		return nil, "", err
	}
	return cube, loc, nil
}

// resolveLocale falls back to the schema default and canonicalizes the tag.
func resolveLocale(locale, def string) (string, error) {
	if locale == "" {
		locale = def
	}
	if locale == "" {
		return "", nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", NewInvalidRequest("invalid locale %q", locale)
	}
	return tag.String(), nil
}

func checkDataRequest(req request.DataRequest) error {
	for _, name := range slices.Sorted(maps.Keys(req.Filters)) {
		f := req.Filters[name]
		if err := f.Constraint1.Validate(); err != nil {
			return NewInvalidRequest("filter on %q: %v", name, err)
		}
		if f.Constraint2 != nil {
			if err := f.Constraint2.Validate(); err != nil {
				return NewInvalidRequest("filter on %q: %v", name, err)
			}
		}
		if (f.Constraint2 == nil) != (f.Joint == "") {
			return NewInvalidRequest("filter on %q: joint must be given exactly when there are two constraints", name)
		}
		if f.Joint != "" && f.Joint != request.JointAnd && f.Joint != request.JointOr {
			return NewInvalidRequest("filter on %q: unknown joint %q", name, f.Joint)
		}
	}
	if t := req.Time; t != nil {
		switch t.Bound {
		case request.TimeLatest, request.TimeOldest:
			if t.N < 1 {
				return NewInvalidRequest("time restriction %s needs a positive count", t.Bound)
			}
		case request.TimeRange:
			if t.From == "" || t.To == "" {
				return NewInvalidRequest("time range needs both bounds")
			}
		default:
			return NewInvalidRequest("time restriction without bound")
		}
	}
	return nil
}

// resolveSorting accepts an output measure, a drilldown level or a selected property.
func resolveSorting(q *queryir.DataQuery, s request.Sorting) (*queryir.SortField, error) {
	dir := s.Direction
	if dir == "" {
		dir = request.DirectionAsc
	}

	entity, ok := sortableEntity(q, s.Field)
	if !ok {
		return nil, NewInvalidEntityName(schema.KindField, s.Field)
	}
	return &queryir.SortField{Field: s.Field, Entity: entity, Direction: dir}, nil
}

// sortableEntity looks the field up among output measures, then drilldown
// levels, then properties of drilldown levels.
func sortableEntity(q *queryir.DataQuery, field string) (schema.Entity, bool) {
	for _, mf := range q.Measures() {
		if mf.Measure.Name == field {
			return mf.Measure, true
		}
	}
	for _, hf := range q.FieldsQualitative {
		for _, lf := range hf.Drilldowns() {
			if lf.Level.Name == field {
				return lf.Level, true
			}
		}
	}
	for _, p := range q.SelectedProperties() {
		if p.Name == field {
			return p, true
		}
	}
	return nil, false
}

// orderedProperties returns the resolved properties in schema declaration order.
func orderedProperties(cube *schema.Cube, props map[string]*schema.Property) []*schema.Property {
	var out []*schema.Property
	for _, dim := range cube.Dimensions {
		for _, hie := range dim.Hierarchies {
			for _, lvl := range hie.Levels {
				for _, p := range lvl.Properties {
					if props[p.Name] == p {
						out = append(out, p)
					}
				}
			}
		}
	}
	return out
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
