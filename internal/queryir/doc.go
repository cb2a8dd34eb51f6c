// Package queryir provides the resolved query intermediate representation.
//
// The IR sits between request resolution and SQL generation:
//
//	[request] → [resolver] → [Query IR] → [querysql]
//
// A DataQuery holds one HierarchyField per involved dimension (each an ordered
// run of LevelFields, shallow to deep) and the MeasureFields taking part in
// the query. A MembersQuery holds the single hierarchy of the requested level.
// Fields reference schema entities by pointer; the IR never copies or mutates
// schema nodes.
//
// SEALED INTERFACES:
//
// Query is sealed with a marker method; only *DataQuery and *MembersQuery
// implement it, so backends can switch exhaustively:
//
//	switch q := query.(type) {
//	case *DataQuery:
//	    // aggregate select
//	case *MembersQuery:
//	    // distinct member select
//	}
//
// DERIVED VIEWS:
//
// EntityMap is the contract with SQL generation: a flat map from output column
// name to schema entity. Sources describes the cube the measures come from.
//
// DETERMINISM:
//
// Every slice in the IR has a defined order (schema declaration order for
// levels, properties and measures; request order for cut members). Snapshot
// turns a query into canonical ir values whose hash is the query fingerprint.
package queryir
