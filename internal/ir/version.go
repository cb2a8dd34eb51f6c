package ir

// Version constants recorded with every logged resolution.
const (
	// SnapshotVersion is the layout version of query snapshots.
	SnapshotVersion = "1"

	// EngineVersion is the tesseract engine version.
	EngineVersion = "0.1.0"
)
