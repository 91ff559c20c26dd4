package harness

import (
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/store"
)

// TraceEvent records the decision for one scenario step.
type TraceEvent struct {
	// Step is the step's name.
	Step string `json:"step"`

	// Seq is the validator sequence number; zero for rejections.
	Seq int64 `json:"seq"`

	Outcome    store.Outcome `json:"outcome"`
	Kind       string        `json:"kind,omitempty"`
	Code       ir.Code       `json:"code,omitempty"`
	To         ir.Status     `json:"to,omitempty"`
	TrustedNow uint64        `json:"trusted_now"`
	Vested     uint64        `json:"vested"`

	// Old is the state the step was validated against.
	Old ir.State `json:"old"`

	// Next is the proposed successor state; nil when closing.
	Next *ir.State `json:"next,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step matched its expectation and every assertion held.
	Pass bool `json:"pass"`

	// RunID is the journal run the steps were written under.
	RunID string `json:"run_id"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Status is the record's lifecycle position after the last step.
	Status ir.Status `json:"status"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Status: ir.StatusActive,
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step decision to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
