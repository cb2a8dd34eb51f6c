// Package harness runs resolution scenarios as executable contract tests.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: state_profit
//	description: "State drilldown keeps the currency default member"
//	schema: ../schema          # CUE schema directory, relative to this file
//	request:                   # any request document accepted by request.Decode
//	  cube: sales
//	  drilldowns: [State]
//	  measures: [profit]
//	assertions:
//	  - type: outcome
//	    code: OK
//	  - type: hierarchy
//	    dimension: geography
//	    hierarchy: standard
//	  - type: level
//	    level: State
//	    drilldown: true
//	  - type: measures
//	    names: [profit]
//	  - type: sql_contains
//	    text: "GROUP BY"
//
// # Assertion Types
//
//   - outcome: the resolution outcome code ("OK" or a resolver error code)
//   - hierarchy: the hierarchy selected for a dimension
//   - level: a level field's drilldown flag and cut members
//   - measures: the output measure names, in query order
//   - ranking: the ranking direction attached to a measure
//   - entity: a name present in the query's entity map
//   - sql_contains: a fragment of the compiled SQL
//
// A scenario without an outcome assertion expects the resolution to succeed.
//
// # Execution
//
// Each scenario runs through a fresh engine over its own schema and an
// in-memory resolution log, with sequential record IDs, so the same scenario
// always produces the same result. RunWithGolden additionally compares the
// canonical query snapshot against testdata/golden/<name>.golden.
package harness
