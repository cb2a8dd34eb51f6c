// Package schema provides the immutable dimensional schema graph that queries
// are resolved against.
//
// A Schema owns a list of cubes. Each cube bundles dimensions (each with one or
// more hierarchies of ordered levels) and measures (each with optional
// submeasures, one level deep). Levels and properties expose localized columns.
//
// The graph is built once by New, which links every node to its parent and
// builds a flattened, name-keyed entity index per cube. After New returns the
// graph must not be mutated; it may then be shared by any number of goroutines
// without locking. Query objects hold pointers into the graph and never copy
// or modify the entities they reference.
//
// Name lookups (Cube.Level, Cube.Property, Cube.Measure) are plain map reads
// against the prebuilt index, so resolution never walks the graph by name.
package schema
