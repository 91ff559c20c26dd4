package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
	"github.com/roach88/vestlock/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		label := event.Kind
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(&buf, "  [%d] %s %s %s", i+1, event.Step, event.Outcome, label)
		if event.Code != "" {
			fmt.Fprintf(&buf, " %s", event.Code)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// assertTraceCount checks the number of events matching every given filter.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if assertion.Outcome != "" && string(event.Outcome) != assertion.Outcome {
			continue
		}
		if assertion.Kind != "" && event.Kind != assertion.Kind {
			continue
		}
		if assertion.Code != "" && !codeMatches(assertion.Code, event.Code) {
			continue
		}
		count++
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d events matching %s", assertion.Count, describeFilter(assertion)),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

func codeMatches(want string, got ir.Code) bool {
	code, err := ir.ParseCode(want)
	return err == nil && code == got
}

func describeFilter(a Assertion) string {
	var parts []string
	if a.Outcome != "" {
		parts = append(parts, "outcome="+a.Outcome)
	}
	if a.Kind != "" {
		parts = append(parts, "kind="+a.Kind)
	}
	if a.Code != "" {
		parts = append(parts, "code="+a.Code)
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, ",")
}

// assertTraceOrder checks that accepted transitions of the given kinds occur
// in the specified order. Other events may appear in between.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next == len(assertion.Kinds) {
			break
		}
		if event.Outcome == store.OutcomeAccept && event.Kind == assertion.Kinds[next] {
			next++
		}
	}

	if next < len(assertion.Kinds) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("accepted kinds in order: %v", assertion.Kinds),
			Actual:   fmt.Sprintf("missing %s after position %d", assertion.Kinds[next], next),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalStatus checks the record's lifecycle position after the last step.
func assertFinalStatus(result *Result, assertion Assertion) error {
	if string(result.Status) != assertion.Status {
		return &AssertionError{
			Type:     AssertFinalStatus,
			Expected: assertion.Status,
			Actual:   string(result.Status),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFinalState reads the latest journaled successor state and checks the
// expected fields (subset semantics). A record without accepted successors is
// still at genesis.
func assertFinalState(actx *AssertionContext, result *Result, assertion Assertion) error {
	if result.Status == ir.StatusClosed {
		return fmt.Errorf("final_state: record is closed and has no state")
	}

	state := actx.Genesis
	stateHex, found, err := actx.Store.LatestState(actx.Ctx, actx.RunID, actx.RecordID)
	if err != nil {
		return err
	}
	if found {
		raw, err := layout.ParseHex(stateHex)
		if err != nil {
			return fmt.Errorf("final_state: %w", err)
		}
		if state, err = layout.DecodeState(raw); err != nil {
			return fmt.Errorf("final_state: %w", err)
		}
	}

	actual := uintMap(state)
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return fmt.Errorf("final_state: unknown state field %q", k)
		}
		want := assertion.Expect[k]
		if fmt.Sprint(want) != fmt.Sprint(got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %v", k, want),
				Actual:   fmt.Sprintf("%s = %v", k, got),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// invariantEnv declares the variables visible to invariant expressions:
//
//	old     map of the state the step was validated against
//	next    map of the successor state (empty when closing)
//	closed  true when the step consumed the record without a successor
//	kind    the transition kind
//	now     trusted time
//	vested  vested amount at trusted time
//
// Amounts are unsigned; compare against literals with the u suffix (100u).
func invariantEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("old", cel.MapType(cel.StringType, cel.UintType)),
		cel.Variable("next", cel.MapType(cel.StringType, cel.UintType)),
		cel.Variable("closed", cel.BoolType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("now", cel.UintType),
		cel.Variable("vested", cel.UintType),
	)
}

// compileInvariant compiles a boolean CEL expression.
func compileInvariant(expr string) (cel.Program, error) {
	env, err := invariantEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("compile: expression must be bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast, cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	return prg, nil
}

func invariantInput(event TraceEvent) map[string]any {
	next := map[string]uint64{}
	if event.Next != nil {
		next = uintMap(*event.Next)
	}
	return map[string]any{
		"old":    uintMap(event.Old),
		"next":   next,
		"closed": event.Next == nil,
		"kind":   event.Kind,
		"now":    event.TrustedNow,
		"vested": event.Vested,
	}
}

// uintMap flattens a state into its field names.
func uintMap(s ir.State) map[string]uint64 {
	return map[string]uint64{
		"total":               s.Total,
		"beneficiary_claimed": s.BeneficiaryClaimed,
		"creator_claimed":     s.CreatorClaimed,
		"highest_time_seen":   s.HighestTimeSeen,
	}
}

// assertInvariant evaluates the expression after every accepted step.
func assertInvariant(trace []TraceEvent, assertion Assertion) error {
	prg, err := compileInvariant(assertion.Expr)
	if err != nil {
		return fmt.Errorf("invariant %q: %w", assertion.Expr, err)
	}

	for _, event := range trace {
		if event.Outcome != store.OutcomeAccept {
			continue
		}
		out, _, err := prg.Eval(invariantInput(event))
		if err != nil {
			return fmt.Errorf("invariant %q at step %s: eval: %w", assertion.Expr, event.Step, err)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return fmt.Errorf("invariant %q at step %s: result not bool", assertion.Expr, event.Step)
		}
		if !ok {
			return &AssertionError{
				Type:     AssertInvariant,
				Expected: assertion.Expr,
				Actual:   fmt.Sprintf("false at step %s", event.Step),
				Trace:    trace,
			}
		}
	}
	return nil
}

// AssertionContext provides journal access for final_state assertions.
type AssertionContext struct {
	Store    *store.Store
	Ctx      context.Context
	RunID    string
	RecordID string
	Genesis  ir.State
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertFinalStatus:
			err = assertFinalStatus(result, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires journal context", i)
			} else {
				err = assertFinalState(actx, result, assertion)
			}
		case AssertInvariant:
			err = assertInvariant(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
