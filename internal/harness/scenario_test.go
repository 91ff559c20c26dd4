package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenarioYAML = `
name: valid
description: "a valid scenario"
schedule:
  creator: creator
  beneficiary: beneficiary
  start: 100
  end: 200
  cliff: 120
genesis:
  total: 1000
  highest_time_seen: 100
steps:
  - signers: [beneficiary]
    time_refs: [150]
    next: { beneficiary_claimed: 500, highest_time_seen: 150 }
    expect: { outcome: accept, kind: BeneficiaryClaim, vested: 500 }
assertions:
  - type: final_status
    status: active
`

func TestLoadScenario_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenarioYAML), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "valid", s.Name)
	assert.Equal(t, uint64(120), s.Schedule.Cliff)
	assert.Equal(t, uint64(1000), s.Genesis.Total)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, []uint64{150}, s.Steps[0].TimeRefs)
	assert.Equal(t, 500, s.Steps[0].Next["beneficiary_claimed"])
	require.NotNil(t, s.Steps[0].Expect.Vested)
	assert.Equal(t, uint64(500), *s.Steps[0].Expect.Vested)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_AllTestdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(validScenarioYAML + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no creator", func(s *Scenario) { s.Schedule.Creator = "" }, "creator and beneficiary are required"},
		{"bad beneficiary", func(s *Scenario) { s.Schedule.Beneficiary = "bob" }, "schedule.beneficiary"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps list is required"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"bad signer", func(s *Scenario) { s.Steps[0].Signers = []string{"bob"} }, "steps[0].signers"},
		{"close with next", func(s *Scenario) { s.Steps[0].Close = true }, "mutually exclusive"},
		{"bad outcome", func(s *Scenario) { s.Steps[0].Expect.Outcome = "maybe" }, "outcome must be accept or reject"},
		{"reject without code", func(s *Scenario) { s.Steps[0].Expect.Outcome = "reject" }, "code is required"},
		{"accept with code", func(s *Scenario) { s.Steps[0].Expect.Code = "INVALID_AMOUNT" }, "only valid for rejections"},
		{"unknown code", func(s *Scenario) {
			s.Steps[0].Expect = Expect{Outcome: "reject", Code: "NOPE"}
		}, "unknown rejection code"},
		{"unknown kind", func(s *Scenario) { s.Steps[0].Expect.Kind = "Refund" }, "unknown transition kind"},
		{"assertion without type", func(s *Scenario) { s.Assertions[0].Type = "" }, "type is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions[0].Type = "trace_contains" }, "unknown assertion type"},
		{"negative count", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertTraceCount, Count: -1}
		}, "count must be non-negative"},
		{"count unknown kind", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertTraceCount, Kind: "Refund"}
		}, "unknown transition kind"},
		{"order without kinds", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertTraceOrder}
		}, "kinds list is required"},
		{"order unknown kind", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertTraceOrder, Kinds: []string{"Refund"}}
		}, "unknown transition kind"},
		{"status missing", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertFinalStatus}
		}, "status is required"},
		{"state missing", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertFinalState}
		}, "expect is required"},
		{"invariant missing", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertInvariant}
		}, "expr is required"},
		{"invariant not bool", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertInvariant, Expr: "old.total"}
		}, "must be bool"},
		{"invariant syntax", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertInvariant, Expr: "old.total >"}
		}, "compile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScenario([]byte(validScenarioYAML))
			require.NoError(t, err)

			tt.mutate(s)
			err = validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
