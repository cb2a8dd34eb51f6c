package resolver

import (
	"slices"

	"github.com/roach88/tesseract/internal/queryir"
	"github.com/roach88/tesseract/internal/request"
	"github.com/roach88/tesseract/internal/schema"
)

// LevelInputs is what the level field builder needs from a resolved request.
type LevelInputs struct {
	Drilldowns map[string]bool
	Involved   map[string]bool // drilldowns, cut levels, time level, default members
	Cuts       map[string]request.Cut
	Properties map[string]bool
	Captions   map[string]bool
	Parents    request.Parents
	TimeLevel  *schema.Level
	Time       *request.TimeRestriction
}

// BuildHierarchyField selects the levels of one hierarchy.
//
// The levels are folded deepest first with a parent flag as accumulator: a
// level is a drilldown when the flag is up or it was requested as one, and a
// field when it is a drilldown or otherwise involved. A drilldown whose
// ancestors are requested raises the flag for every shallower level. The
// collected fields are returned shallow to deep; ok is false when no level
// qualifies, and the hierarchy is then left out of the query.
func BuildHierarchyField(dim *schema.Dimension, hie *schema.Hierarchy, in LevelInputs) (queryir.HierarchyField, bool) {
	type acc struct {
		parent bool
		fields []queryir.LevelField
	}

	state := acc{}
	for _, lvl := range slices.Backward(hie.Levels) {
		isDrilldown := state.parent || in.Drilldowns[lvl.Name]
		isField := isDrilldown || in.Involved[lvl.Name]
		if isField {
			state.fields = append(state.fields, buildLevelField(lvl, isDrilldown, in))
		}
		state.parent = state.parent || (isDrilldown && in.Parents.Includes(lvl.Name))
	}

	if len(state.fields) == 0 {
		return queryir.HierarchyField{}, false
	}
	slices.Reverse(state.fields)
	return queryir.HierarchyField{Dimension: dim, Hierarchy: hie, Levels: state.fields}, true
}

func buildLevelField(lvl *schema.Level, isDrilldown bool, in LevelInputs) queryir.LevelField {
	lf := queryir.LevelField{Level: lvl, IsDrilldown: isDrilldown}

	for _, prop := range lvl.Properties {
		if in.Properties[prop.Name] {
			lf.Properties = append(lf.Properties, prop)
		}
		if lf.Caption == nil && in.Captions[prop.Name] {
			lf.Caption = prop
		}
	}

	if cut, ok := in.Cuts[lvl.Name]; ok {
		// Include is authoritative; exclude only applies when nothing is included.
		if len(cut.Include) > 0 {
			lf.MembersInclude = slices.Clone(cut.Include)
		} else if len(cut.Exclude) > 0 {
			lf.MembersExclude = slices.Clone(cut.Exclude)
		}
	}

	if in.TimeLevel == lvl {
		lf.TimeRestriction = in.Time
	}
	return lf
}
