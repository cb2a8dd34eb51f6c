// Package request defines the analytical requests accepted by the resolver.
//
// A DataRequest names a cube plus drilldowns, measures, cuts, filters and the
// parents/ranking directives; a MembersRequest asks for the members of one
// level. Requests are plain values built by the caller or decoded from YAML
// with Decode. Directives that may be given either as a flag or as an explicit
// set (Parents, Ranking) are modeled as small tagged unions whose zero value
// means "none".
package request
