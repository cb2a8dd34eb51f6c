package ir

// Outcome of a resolution as recorded in the log: OutcomeOK or an error code.
const OutcomeOK = "OK"

// Resolution is one logged request resolution (store-layer).
//
// Request holds the YAML encoding of the request so it can be decoded and
// resolved again on replay. Snapshot and Fingerprint are empty when the
// resolution failed; Outcome then carries the error code and Error its message.
type Resolution struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"` // Logical clock, never wall time
	Kind          string `json:"kind"`
	Cube          string `json:"cube"`
	RequestHash   string `json:"request_hash"`
	Request       string `json:"request"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	Snapshot      Object `json:"snapshot,omitempty"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
	SchemaHash    string `json:"schema_hash"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// OK reports whether the resolution succeeded.
func (r Resolution) OK() bool { return r.Outcome == OutcomeOK }
