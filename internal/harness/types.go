package harness

import "github.com/roach88/tesseract/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// Outcome is ir.OutcomeOK or the resolver error code.
	Outcome string `json:"outcome"`

	// Fingerprint and Snapshot describe the resolved query; empty on failure.
	Fingerprint string    `json:"fingerprint,omitempty"`
	Snapshot    ir.Object `json:"snapshot,omitempty"`

	// SQL is the compiled statement of a successful resolution.
	SQL string `json:"sql,omitempty"`

	// ResolutionID identifies the record appended to the scenario's log.
	ResolutionID string `json:"resolution_id"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
