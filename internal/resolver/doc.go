// Package resolver normalizes raw requests into resolved queries.
//
// A request names cubes, levels, measures and properties by string. The
// resolver checks authorization, binds every name to the schema graph,
// enforces one hierarchy per dimension, injects default members, builds the
// level and measure fields and validates ranking and sorting. The result is
// a queryir.DataQuery or queryir.MembersQuery ready for SQL generation.
//
// Resolution is all-or-nothing: any failure returns a *ResolveError and no
// query. The exported builders (CheckHierarchies, BuildHierarchyField,
// BuildMeasureFields, DefaultMembers, ResolveRanking) are the individual
// stages and can be used on their own.
package resolver
