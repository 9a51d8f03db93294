package harness

import (
	"github.com/roach88/skelc/internal/analysis"
	"github.com/roach88/skelc/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Manifest is the analysis output. Nil when the run aborted.
	Manifest *ir.Manifest `json:"manifest,omitempty"`

	// Digest is the text rendering of Manifest used for golden comparison.
	Digest string `json:"digest,omitempty"`

	// Fatal holds the error code of an aborted run.
	Fatal string `json:"fatal,omitempty"`

	// Diagnostics are the non-fatal findings of the run.
	Diagnostics []analysis.Diagnostic `json:"diagnostics,omitempty"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// DiagnosticCodes lists the codes of the run's diagnostics in order.
func (r *Result) DiagnosticCodes() []string {
	codes := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		codes[i] = d.Code
	}
	return codes
}

// Snapshot is the text compared against golden files: the digest of a
// completed run, or the fatal code of an aborted one.
func (r *Result) Snapshot() []byte {
	if r.Manifest == nil && r.Fatal != "" {
		return []byte("fatal " + r.Fatal + "\n")
	}
	return []byte(r.Digest)
}
