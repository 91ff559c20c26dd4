package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/store"
)

// Scenario defines a conformance test scenario.
// A scenario creates one vesting record, drives it through a sequence of
// proposed transitions and asserts on the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schedule is the record's immutable configuration.
	Schedule ScheduleSpec `yaml:"schedule"`

	// Genesis is the record's initial state. Claims must be zero.
	Genesis GenesisSpec `yaml:"genesis"`

	// Steps are proposed transitions, validated in order.
	// Accepted steps with a successor advance the record; rejected steps
	// leave it untouched.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_count, trace_order, final_status, final_state, invariant
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed journal run ID.
	// If empty, defaults to "test-run-default" so golden files stay stable.
	RunID string `yaml:"run_id,omitempty"`
}

// ScheduleSpec describes the configuration.
// Creator and Beneficiary accept a well-known alias (creator, beneficiary,
// stranger) or a 64-character hex hash.
type ScheduleSpec struct {
	Creator     string `yaml:"creator"`
	Beneficiary string `yaml:"beneficiary"`
	Start       uint64 `yaml:"start"`
	End         uint64 `yaml:"end"`
	Cliff       uint64 `yaml:"cliff"`
}

// GenesisSpec is the initial record state.
type GenesisSpec struct {
	Total           uint64 `yaml:"total"`
	HighestTimeSeen uint64 `yaml:"highest_time_seen"`
}

// Step is one proposed transition.
type Step struct {
	// Name labels the step in the trace. Defaults to "step-<index>".
	Name string `yaml:"name,omitempty"`

	// Signers are the credentials attached, as aliases or hex hashes.
	Signers []string `yaml:"signers,omitempty"`

	// TimeRefs are the trusted time points attached.
	TimeRefs []uint64 `yaml:"time_refs"`

	// Next overrides fields of the current state to build the successor.
	// Keys are state field names (total, beneficiary_claimed,
	// creator_claimed, highest_time_seen). Ignored when Close is set.
	Next map[string]any `yaml:"next,omitempty"`

	// Close consumes the record without producing a successor.
	Close bool `yaml:"close,omitempty"`

	// Inputs and Outputs override the governed record counts.
	// Defaults: one input; one output unless Close is set.
	Inputs  *int `yaml:"inputs,omitempty"`
	Outputs *int `yaml:"outputs,omitempty"`

	// Raw replaces encoded buffers verbatim, for malformed-input cases.
	Raw *RawBuffers `yaml:"raw,omitempty"`

	// Expect is the expected decision. Required.
	Expect Expect `yaml:"expect"`
}

// RawBuffers holds hex-encoded replacement buffers. Empty fields keep the
// buffer built from the scenario.
type RawBuffers struct {
	OldConfig string `yaml:"old_config,omitempty"`
	OldState  string `yaml:"old_state,omitempty"`
	NewConfig string `yaml:"new_config,omitempty"`
	NewState  string `yaml:"new_state,omitempty"`
}

// Expect specifies the expected decision for a step.
type Expect struct {
	// Outcome is "accept" or "reject".
	Outcome string `yaml:"outcome"`

	// Kind is the expected transition kind. Optional.
	Kind string `yaml:"kind,omitempty"`

	// Code is the expected rejection code. Required when rejecting.
	Code string `yaml:"code,omitempty"`

	// To is the expected status after an accepted step. Optional.
	To string `yaml:"to,omitempty"`

	// Vested is the expected vested amount at trusted time. Optional.
	Vested *uint64 `yaml:"vested,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_count": Count trace events matching the filters
	// - "trace_order": Check accepted kinds appear in order
	// - "final_status": Check the record's status after the last step
	// - "final_state": Check the journaled latest state
	// - "invariant": Evaluate a CEL expression after every accepted step
	Type string `yaml:"type"`

	// Outcome, Kind and Code filter events (used by trace_count).
	Outcome string `yaml:"outcome,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Code    string `yaml:"code,omitempty"`

	// Count is the expected number of matching events (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected kind order (used by trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Status is the expected final status (used by final_status).
	Status string `yaml:"status,omitempty"`

	// Expect contains expected state fields (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Expr is a CEL boolean expression (used by invariant).
	Expr string `yaml:"expr,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount  = "trace_count"
	AssertTraceOrder  = "trace_order"
	AssertFinalStatus = "final_status"
	AssertFinalState  = "final_state"
	AssertInvariant   = "invariant"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schedule.Creator == "" || s.Schedule.Beneficiary == "" {
		return fmt.Errorf("schedule: creator and beneficiary are required")
	}
	if _, err := resolveSigner(s.Schedule.Creator); err != nil {
		return fmt.Errorf("schedule.creator: %w", err)
	}
	if _, err := resolveSigner(s.Schedule.Beneficiary); err != nil {
		return fmt.Errorf("schedule.beneficiary: %w", err)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	for _, signer := range step.Signers {
		if _, err := resolveSigner(signer); err != nil {
			return fmt.Errorf("steps[%d].signers: %w", index, err)
		}
	}
	if step.Close && len(step.Next) > 0 {
		return fmt.Errorf("steps[%d]: next and close are mutually exclusive", index)
	}
	if step.Expect.Kind != "" {
		if _, err := engine.ParseKind(step.Expect.Kind); err != nil {
			return fmt.Errorf("steps[%d].expect: %w", index, err)
		}
	}

	switch store.Outcome(step.Expect.Outcome) {
	case store.OutcomeAccept:
		if step.Expect.Code != "" {
			return fmt.Errorf("steps[%d].expect: code is only valid for rejections", index)
		}
	case store.OutcomeReject:
		if step.Expect.Code == "" {
			return fmt.Errorf("steps[%d].expect: code is required for rejections", index)
		}
		if _, err := ir.ParseCode(step.Expect.Code); err != nil {
			return fmt.Errorf("steps[%d].expect: %w", index, err)
		}
	default:
		return fmt.Errorf("steps[%d].expect: outcome must be accept or reject, got %q", index, step.Expect.Outcome)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
		if a.Kind != "" {
			if _, err := engine.ParseKind(a.Kind); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
		for _, k := range a.Kinds {
			if _, err := engine.ParseKind(k); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertFinalStatus:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for final_status", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertInvariant:
		if a.Expr == "" {
			return fmt.Errorf("assertions[%d]: expr is required for invariant", index)
		}
		if _, err := compileInvariant(a.Expr); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
