package engine

import (
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
)

// Transition is everything the host supplies for one validation call.
//
// NewConfig and NewState are nil when the transaction consumes the record
// without producing a successor. Inputs and Outputs count only records
// governed by this vesting logic.
type Transition struct {
	OldConfig []byte
	OldState  []byte
	NewConfig []byte
	NewState  []byte

	// Credentials are the credential hashes that authorized the transaction.
	Credentials []ir.Hash32

	// TimeRefs are the trusted time points attached to the transaction.
	// The largest one is trusted_now.
	TimeRefs []uint64

	Inputs  int
	Outputs int
}

// HasSuccessor reports whether the transaction produces a successor record.
func (t *Transition) HasSuccessor() bool {
	return t.Outputs == 1
}

// Fields returns the hex-encoded view used for content addressing.
func (t *Transition) Fields() ir.TransitionFields {
	creds := make([]string, len(t.Credentials))
	for i, c := range t.Credentials {
		creds[i] = c.String()
	}
	refs := make([]uint64, len(t.TimeRefs))
	copy(refs, t.TimeRefs)
	return ir.TransitionFields{
		OldConfig:   layout.Hex(t.OldConfig),
		OldState:    layout.Hex(t.OldState),
		NewConfig:   layout.Hex(t.NewConfig),
		NewState:    layout.Hex(t.NewState),
		Credentials: creds,
		TimeRefs:    refs,
		Inputs:      t.Inputs,
		Outputs:     t.Outputs,
	}
}

// ID returns the content-addressed transition ID.
func (t *Transition) ID() (string, error) {
	return ir.TransitionID(t.Fields())
}

// TrustedNow returns the maximum of the supplied time references.
// A transaction without any time reference cannot be placed in time and is
// rejected as structurally invalid.
func TrustedNow(refs []uint64) (uint64, error) {
	if len(refs) == 0 {
		return 0, ir.Reject(ir.CodeInvalidTransactionStructure, "transaction carries no trusted time reference")
	}
	now := refs[0]
	for _, r := range refs[1:] {
		if r > now {
			now = r
		}
	}
	return now, nil
}

// checkCardinality enforces one governed input and at most one governed
// output, and that successor bytes are present iff an output is declared.
func checkCardinality(t *Transition) error {
	if t.Inputs != 1 {
		return ir.Reject(ir.CodeInvalidTransactionStructure, "transaction must consume exactly one vesting record").
			With("inputs", t.Inputs)
	}
	if t.Outputs < 0 || t.Outputs > 1 {
		return ir.Reject(ir.CodeInvalidTransactionStructure, "transaction may produce at most one vesting record").
			With("outputs", t.Outputs)
	}
	hasBytes := t.NewConfig != nil || t.NewState != nil
	if t.HasSuccessor() && (t.NewConfig == nil || t.NewState == nil) {
		return ir.Reject(ir.CodeInvalidTransactionStructure, "declared successor record has no data")
	}
	if !t.HasSuccessor() && hasBytes {
		return ir.Reject(ir.CodeInvalidTransactionStructure, "successor data supplied without a governed output")
	}
	return nil
}
