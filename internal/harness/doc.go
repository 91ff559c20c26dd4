// Package harness provides conformance testing for vesting records.
//
// The harness creates one record from a scenario's schedule and genesis
// state, proposes each step to the real validator, journals every decision
// to an in-memory store and validates the outcome against expectations and
// assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schedule:
//	  creator: creator
//	  beneficiary: beneficiary
//	  start: 100
//	  end: 200
//	  cliff: 120
//	genesis:
//	  total: 1000
//	  highest_time_seen: 100
//	steps:
//	  - name: half-way
//	    signers: [beneficiary]
//	    time_refs: [150]
//	    next: { beneficiary_claimed: 500, highest_time_seen: 150 }
//	    expect:
//	      outcome: accept
//	      kind: BeneficiaryClaim
//	  - close: true
//	    signers: [beneficiary]
//	    time_refs: [210]
//	    expect: { outcome: accept, to: closed }
//	assertions:
//	  - type: trace_count
//	    outcome: accept
//	    count: 2
//	  - type: final_status
//	    status: closed
//
// Step signers and schedule parties accept the aliases creator, beneficiary
// and stranger, or a 64-character hex hash. A step's next map overrides
// fields of the current state; fields it omits carry over unchanged.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_count: Counts events matching outcome, kind and code filters
//   - trace_order: Verifies accepted kinds appear in specified order
//   - final_status: Checks active, terminated or closed after the last step
//   - final_state: Reads the journaled latest state and verifies fields
//   - invariant: Evaluates a CEL expression after every accepted step
//
// # Deterministic Testing
//
// Every run uses a fixed journal run ID, the validator's sequence clock
// starting at 1, and a fresh in-memory SQLite database, so identical
// scenarios produce identical traces for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/linear_vesting.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
