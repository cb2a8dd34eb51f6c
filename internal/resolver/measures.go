package resolver

import (
	"maps"
	"slices"

	"github.com/roach88/tesseract/internal/queryir"
	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/schema"
)

// BuildMeasureFields resolves the requested and filtered measures and builds
// their fields.
//
// Every resolved top-level measure is expanded with its declared submeasures,
// exactly one level deep. Fields follow cube declaration order with each
// submeasure right after its parent. A measure is output only when it was
// requested. Ranking is attached only to names in the cube's top-level measure
// map, so a submeasure is never ranked.
func BuildMeasureFields(cube *schema.Cube, requested []string, filters map[string]request.Filter, ranking map[string]request.Direction) ([]queryir.MeasureField, error) {
	names := slices.Clone(requested)
	for _, name := range slices.Sorted(maps.Keys(filters)) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	resolved, err := ResolveMeasures(cube, names)
	if err != nil {
		return nil, err
	}

	included := make(map[*schema.Measure]bool, len(resolved))
	for _, msr := range resolved {
		included[msr] = true
		if !msr.IsSubmeasure() {
			for _, sub := range msr.Submeasures {
				included[sub] = true
			}
		}
	}

	isRequested := make(map[string]bool, len(requested))
	for _, name := range requested {
		isRequested[name] = true
	}

	var fields []queryir.MeasureField
	add := func(msr *schema.Measure) {
		if !included[msr] {
			return
		}
		mf := queryir.MeasureField{Measure: msr, IsMeasure: isRequested[msr.Name]}
		if f, ok := filters[msr.Name]; ok {
			c1 := f.Constraint1
			mf.Constraint1 = &c1
			if f.Constraint2 != nil {
				c2 := *f.Constraint2
				mf.Constraint2 = &c2
				mf.Joint = f.Joint
			}
		}
		if _, top := cube.TopLevelMeasure(msr.Name); top {
			mf.WithRanking = ranking[msr.Name]
		}
		fields = append(fields, mf)
	}

	for _, msr := range cube.Measures {
		add(msr)
		for _, sub := range msr.Submeasures {
			add(sub)
		}
	}
	return fields, nil
}
