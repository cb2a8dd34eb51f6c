package request

import (
	"slices"
	"strings"

	"github.com/roach88/tesseract/internal/schema"
)

// Kind discriminates data requests from members requests in encoded form.
type Kind string

const (
	KindData    Kind = "data"
	KindMembers Kind = "members"
)

// Request is a sealed interface over DataRequest and MembersRequest.
//
// Both implement schema.AccessRequest so the authorization predicate can be
// evaluated before any resolution work.
type Request interface {
	schema.AccessRequest
	Kind() Kind
	isRequest()
}

// DataRequest asks for aggregated measures sliced by levels of a cube.
//
// Name lists behave as sets; Decode trims and de-duplicates them while keeping
// first-seen order.
type DataRequest struct {
	Cube       string            `yaml:"cube"`
	Locale     string            `yaml:"locale,omitempty"`
	Drilldowns []string          `yaml:"drilldowns,omitempty"`
	Measures   []string          `yaml:"measures,omitempty"`
	Properties []string          `yaml:"properties,omitempty"`
	Captions   []string          `yaml:"captions,omitempty"`
	Cuts       map[string]Cut    `yaml:"cuts,omitempty"`
	Filters    map[string]Filter `yaml:"filters,omitempty"`
	Parents    Parents           `yaml:"parents,omitempty"`
	Ranking    Ranking           `yaml:"ranking,omitempty"`
	Pagination Pagination        `yaml:"pagination,omitempty"`
	Sorting    *Sorting          `yaml:"sorting,omitempty"`
	Time       *TimeRestriction  `yaml:"time,omitempty"`
	Roles      []string          `yaml:"roles,omitempty"`
}

func (r DataRequest) CubeName() string    { return r.Cube }
func (r DataRequest) RoleNames() []string { return r.Roles }
func (DataRequest) Kind() Kind            { return KindData }
func (DataRequest) isRequest()            {}

// MembersRequest asks for the distinct members of a single level.
type MembersRequest struct {
	Cube       string     `yaml:"cube"`
	Locale     string     `yaml:"locale,omitempty"`
	Level      string     `yaml:"level"`
	Properties []string   `yaml:"properties,omitempty"`
	Captions   []string   `yaml:"captions,omitempty"`
	Parents    bool       `yaml:"parents,omitempty"`
	Search     string     `yaml:"search,omitempty"`
	Pagination Pagination `yaml:"pagination,omitempty"`
	Roles      []string   `yaml:"roles,omitempty"`
}

func (r MembersRequest) CubeName() string    { return r.Cube }
func (r MembersRequest) RoleNames() []string { return r.Roles }
func (MembersRequest) Kind() Kind            { return KindMembers }
func (MembersRequest) isRequest()            {}

// Cut restricts a level to a subset of its members.
type Cut struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// Pagination limits the number of returned rows. A zero Limit means no limit.
type Pagination struct {
	Limit  int `yaml:"limit,omitempty"`
	Offset int `yaml:"offset,omitempty"`
}

// IsZero reports whether no pagination was requested.
func (p Pagination) IsZero() bool { return p.Limit == 0 && p.Offset == 0 }

// Sorting orders the result by one output field.
type Sorting struct {
	Field     string    `yaml:"field"`
	Direction Direction `yaml:"direction,omitempty"`
}

// TimeBound selects how a time restriction bounds its level.
type TimeBound string

const (
	TimeLatest TimeBound = "latest"
	TimeOldest TimeBound = "oldest"
	TimeRange  TimeBound = "range"
)

// TimeRestriction limits the query to a window of members of the level with
// the given granularity: the latest or oldest N members, or a key range.
type TimeRestriction struct {
	Granularity schema.Granularity
	Bound       TimeBound
	N           int    // latest, oldest
	From, To    string // range, inclusive
}

// Latest restricts to the n most recent members at granularity g.
func Latest(g schema.Granularity, n int) *TimeRestriction {
	return &TimeRestriction{Granularity: g, Bound: TimeLatest, N: n}
}

// Oldest restricts to the n earliest members at granularity g.
func Oldest(g schema.Granularity, n int) *TimeRestriction {
	return &TimeRestriction{Granularity: g, Bound: TimeOldest, N: n}
}

// Between restricts to the members at granularity g whose keys lie in [from, to].
func Between(g schema.Granularity, from, to string) *TimeRestriction {
	return &TimeRestriction{Granularity: g, Bound: TimeRange, From: from, To: to}
}

// uniqueNames trims names and drops empties and duplicates, keeping first-seen order.
func uniqueNames(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Normalize returns a copy with every name list trimmed and de-duplicated.
func (r DataRequest) Normalize() DataRequest {
	r.Cube = strings.TrimSpace(r.Cube)
	r.Locale = strings.TrimSpace(r.Locale)
	r.Drilldowns = uniqueNames(r.Drilldowns)
	r.Measures = uniqueNames(r.Measures)
	r.Properties = uniqueNames(r.Properties)
	r.Captions = uniqueNames(r.Captions)
	r.Roles = uniqueNames(r.Roles)
	if r.Cuts != nil {
		cuts := make(map[string]Cut, len(r.Cuts))
		for level, cut := range r.Cuts {
			cuts[strings.TrimSpace(level)] = Cut{
				Include: uniqueNames(cut.Include),
				Exclude: uniqueNames(cut.Exclude),
			}
		}
		r.Cuts = cuts
	}
	return r
}

// Normalize returns a copy with every name list trimmed and de-duplicated.
func (r MembersRequest) Normalize() MembersRequest {
	r.Cube = strings.TrimSpace(r.Cube)
	r.Locale = strings.TrimSpace(r.Locale)
	r.Level = strings.TrimSpace(r.Level)
	r.Properties = uniqueNames(r.Properties)
	r.Captions = uniqueNames(r.Captions)
	r.Roles = uniqueNames(r.Roles)
	return r
}
