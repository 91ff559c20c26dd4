package store

import (
	"fmt"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
)

// Outcome is the decision recorded for an entry.
type Outcome string

const (
	OutcomeAccept Outcome = "accept"
	OutcomeReject Outcome = "reject"
)

// Entry is one journaled validation.
// Buffers are 0x-prefixed hex; absent successor buffers are "".
type Entry struct {
	Seq           int64     `json:"seq"`
	RunID         string    `json:"run_id"`
	TransitionID  string    `json:"transition_id"`
	RecordID      string    `json:"record_id"`
	OldConfig     string    `json:"old_config"`
	OldState      string    `json:"old_state"`
	NewConfig     string    `json:"new_config"`
	NewState      string    `json:"new_state"`
	Credentials   []string  `json:"credentials"`
	TimeRefs      []uint64  `json:"time_refs"`
	Inputs        int       `json:"inputs"`
	Outputs       int       `json:"outputs"`
	Outcome       Outcome   `json:"outcome"`
	Kind          string    `json:"kind"`
	Code          ir.Code   `json:"code"`
	ToStatus      ir.Status `json:"to_status"`
	TrustedNow    uint64    `json:"trusted_now"`
	Vested        uint64    `json:"vested"`
	EngineVersion string    `json:"engine_version"`
}

// NewEntry builds a journal entry from a validation call. Exactly one of
// verdict and err is expected to be set; on rejection verdict may still carry
// the partial decision.
func NewEntry(runID string, t *engine.Transition, verdict *engine.Verdict, err error) (Entry, error) {
	if t == nil {
		return Entry{}, fmt.Errorf("new entry: nil transition")
	}
	id, idErr := t.ID()
	if idErr != nil {
		return Entry{}, fmt.Errorf("new entry: %w", idErr)
	}
	f := t.Fields()
	e := Entry{
		RunID:         runID,
		TransitionID:  id,
		RecordID:      ir.RecordID(t.OldConfig),
		OldConfig:     f.OldConfig,
		OldState:      f.OldState,
		NewConfig:     f.NewConfig,
		NewState:      f.NewState,
		Credentials:   f.Credentials,
		TimeRefs:      f.TimeRefs,
		Inputs:        t.Inputs,
		Outputs:       t.Outputs,
		EngineVersion: ir.EngineVersion,
	}

	if err != nil {
		e.Outcome = OutcomeReject
		e.Code = ir.CodeOf(err)
		if e.Code == "" {
			return Entry{}, fmt.Errorf("new entry: rejection without taxonomy code: %w", err)
		}
		if verdict != nil {
			e.Kind = string(verdict.Kind)
			e.TrustedNow = verdict.TrustedNow
		}
		return e, nil
	}
	if verdict == nil {
		return Entry{}, fmt.Errorf("new entry: accepted transition without verdict")
	}
	e.Outcome = OutcomeAccept
	e.Kind = string(verdict.Kind)
	e.ToStatus = verdict.To
	e.TrustedNow = verdict.TrustedNow
	e.Vested = verdict.Vested
	return e, nil
}

// Transition rebuilds the proposed transition from the journaled buffers.
func (e Entry) Transition() (*engine.Transition, error) {
	t := &engine.Transition{
		TimeRefs: append([]uint64(nil), e.TimeRefs...),
		Inputs:   e.Inputs,
		Outputs:  e.Outputs,
	}
	var err error
	if t.OldConfig, err = layout.ParseHex(e.OldConfig); err != nil {
		return nil, fmt.Errorf("entry %d old_config: %w", e.Seq, err)
	}
	if t.OldState, err = layout.ParseHex(e.OldState); err != nil {
		return nil, fmt.Errorf("entry %d old_state: %w", e.Seq, err)
	}
	if t.NewConfig, err = layout.ParseHex(e.NewConfig); err != nil {
		return nil, fmt.Errorf("entry %d new_config: %w", e.Seq, err)
	}
	if t.NewState, err = layout.ParseHex(e.NewState); err != nil {
		return nil, fmt.Errorf("entry %d new_state: %w", e.Seq, err)
	}
	for _, c := range e.Credentials {
		h, err := ir.ParseHash32(c)
		if err != nil {
			return nil, fmt.Errorf("entry %d credentials: %w", e.Seq, err)
		}
		t.Credentials = append(t.Credentials, h)
	}
	return t, nil
}

// Diff compares a fresh validation of the entry's transition with what was
// journaled. Returns one line per differing field; empty means identical.
func (e Entry) Diff(verdict *engine.Verdict, err error) []string {
	var diffs []string
	add := func(field string, was, now any) {
		if fmt.Sprint(was) != fmt.Sprint(now) {
			diffs = append(diffs, fmt.Sprintf("%s: journaled %v, now %v", field, was, now))
		}
	}

	outcome := OutcomeAccept
	if err != nil {
		outcome = OutcomeReject
	}
	add("outcome", e.Outcome, outcome)
	if outcome != e.Outcome {
		return diffs
	}

	if err != nil {
		add("code", e.Code, ir.CodeOf(err))
		return diffs
	}
	add("kind", e.Kind, verdict.Kind)
	add("to_status", e.ToStatus, verdict.To)
	add("trusted_now", e.TrustedNow, verdict.TrustedNow)
	add("vested", e.Vested, verdict.Vested)
	return diffs
}
