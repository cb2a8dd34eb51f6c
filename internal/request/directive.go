package request

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Direction is a sort or ranking order. The zero value means unspecified.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionAsc:
		return DirectionAsc, nil
	case DirectionDesc:
		return DirectionDesc, nil
	}
	return "", fmt.Errorf("invalid direction %q: want asc or desc", s)
}

type parentsMode uint8

const (
	parentsNone parentsMode = iota
	parentsAll
	parentsOf
)

// Parents is the parent-inclusion directive: none, all drilldowns, or an
// explicit set of drilldown levels. The zero value is ParentsNone.
type Parents struct {
	mode   parentsMode
	levels []string
}

// ParentsNone includes no ancestor levels.
func ParentsNone() Parents { return Parents{} }

// ParentsAll includes the ancestors of every drilldown level.
func ParentsAll() Parents { return Parents{mode: parentsAll} }

// ParentsOf includes the ancestors of the named drilldown levels only.
func ParentsOf(levels ...string) Parents {
	return Parents{mode: parentsOf, levels: uniqueNames(levels)}
}

// Includes reports whether ancestors of the level should be selected.
func (p Parents) Includes(level string) bool {
	switch p.mode {
	case parentsAll:
		return true
	case parentsOf:
		return slices.Contains(p.levels, level)
	}
	return false
}

// IsAll reports whether the directive applies to every drilldown.
func (p Parents) IsAll() bool { return p.mode == parentsAll }

// Levels returns the explicit level set; nil unless built with ParentsOf.
func (p Parents) Levels() []string { return slices.Clone(p.levels) }

// IsZero reports whether the directive is ParentsNone.
func (p Parents) IsZero() bool { return p.mode == parentsNone }

func (p Parents) String() string {
	switch p.mode {
	case parentsAll:
		return "all"
	case parentsOf:
		return "of(" + strings.Join(p.levels, ",") + ")"
	}
	return "none"
}

// RankingMode tells which variant a Ranking holds.
type RankingMode uint8

const (
	RankingModeNone RankingMode = iota
	RankingModeAll
	RankingModePerMeasure
)

// Ranking is the ranking directive: none, every requested measure in one
// direction, or an explicit measure to direction map. The zero value is RankingNone.
type Ranking struct {
	mode       RankingMode
	direction  Direction
	perMeasure map[string]Direction
}

// RankingNone requests no ranking.
func RankingNone() Ranking { return Ranking{} }

// RankingAll ranks every requested measure in the given direction.
func RankingAll(dir Direction) Ranking {
	if dir == "" {
		dir = DirectionDesc
	}
	return Ranking{mode: RankingModeAll, direction: dir}
}

// RankingPerMeasure ranks the named measures. An empty map is RankingNone.
func RankingPerMeasure(m map[string]Direction) Ranking {
	if len(m) == 0 {
		return Ranking{}
	}
	return Ranking{mode: RankingModePerMeasure, perMeasure: maps.Clone(m)}
}

// Mode returns the variant held by r.
func (r Ranking) Mode() RankingMode { return r.mode }

// Direction returns the direction of a RankingAll directive.
func (r Ranking) Direction() Direction { return r.direction }

// PerMeasure returns a copy of the explicit measure map.
func (r Ranking) PerMeasure() map[string]Direction { return maps.Clone(r.perMeasure) }

// IsZero reports whether the directive is RankingNone.
func (r Ranking) IsZero() bool { return r.mode == RankingModeNone }
