package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vestlock/internal/ir"
)

// TraceSnapshot captures the decisions of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunID        string       `json:"run_id"`
	Status       ir.Status    `json:"status"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles primitives, maps and slices.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":        event.Step,
			"seq":         event.Seq,
			"outcome":     string(event.Outcome),
			"trusted_now": event.TrustedNow,
			"vested":      event.Vested,
			"old":         stateObject(event.Old),
		}
		if event.Kind != "" {
			eventMap["kind"] = event.Kind
		}
		if event.Code != "" {
			eventMap["code"] = event.Code
		}
		if event.To != "" {
			eventMap["to"] = event.To
		}
		if event.Next != nil {
			eventMap["next"] = stateObject(*event.Next)
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        s.RunID,
		"status":        s.Status,
		"trace":         traceList,
	}
}

func stateObject(s ir.State) map[string]any {
	return map[string]any{
		"total":               s.Total,
		"beneficiary_claimed": s.BeneficiaryClaimed,
		"creator_claimed":     s.CreatorClaimed,
		"highest_time_seen":   s.HighestTimeSeen,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		RunID:        result.RunID,
		Status:       result.Status,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
