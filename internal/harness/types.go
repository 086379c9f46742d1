package harness

import "github.com/DBarbosa15987/clav-migrador-sub000/internal/engine"

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when the run behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Run is the pipeline result. Nil when the scenario expected the run
	// itself to fail.
	Run *engine.Result `json:"-"`
}

// NewResult creates a passing result around a pipeline run.
func NewResult(run *engine.Result) *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Run:    run,
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
