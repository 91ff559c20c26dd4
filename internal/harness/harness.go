package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
	"github.com/roach88/vestlock/internal/store"
	"github.com/roach88/vestlock/internal/testutil"
)

// Harness is the test execution engine.
// It drives the real validator and journals every decision to a store.
type Harness struct {
	store     *store.Store
	validator *engine.Validator
	runID     string
	logger    *slog.Logger

	// rejected holds the partial verdict of the most recent rejection.
	rejected *engine.Verdict
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
	hooks  []engine.Hooks
}

// WithLogger routes validator and harness logs to l. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHooks registers validator hooks for the run, e.g. a metrics recorder.
func WithHooks(h engine.Hooks) Option {
	return func(c *runConfig) {
		c.hooks = append(c.hooks, h)
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
// 1. Encode the schedule and genesis state and check them
// 2. Validate each step against the record's current state
// 3. Journal every decision and compare it with the step's expectation
// 4. Evaluate assertions against the trace and the journal
//
// A returned error means the scenario itself could not be executed;
// expectation and assertion failures are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runID:  testutil.NewFixedRunGenerator(scenario.RunID).Generate(),
		logger: cfg.logger,
	}

	engineOpts := []engine.EngineOption{
		engine.WithLogger(cfg.logger),
		engine.WithHooks(engine.Hooks{
			OnReject: func(_ *engine.Transition, v *engine.Verdict, _ error) {
				h.rejected = v
			},
		}),
	}
	for _, hk := range cfg.hooks {
		engineOpts = append(engineOpts, engine.WithHooks(hk))
	}
	h.validator = engine.New(engineOpts...)

	record, err := scenario.record()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := NewResult(h.runID)
	if err := h.executeSteps(ctx, record, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	actx := &AssertionContext{
		Store:    st,
		Ctx:      ctx,
		RunID:    h.runID,
		RecordID: ir.RecordID(record.configBytes),
		Genesis:  record.genesis,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// record is the encoded starting point of a scenario.
type record struct {
	configBytes []byte
	genesis     ir.State
}

func (s *Scenario) record() (record, error) {
	creator, err := resolveSigner(s.Schedule.Creator)
	if err != nil {
		return record{}, fmt.Errorf("schedule.creator: %w", err)
	}
	beneficiary, err := resolveSigner(s.Schedule.Beneficiary)
	if err != nil {
		return record{}, fmt.Errorf("schedule.beneficiary: %w", err)
	}
	cfg := ir.Config{
		Creator:     creator,
		Beneficiary: beneficiary,
		Start:       s.Schedule.Start,
		End:         s.Schedule.End,
		Cliff:       s.Schedule.Cliff,
	}
	genesis := ir.State{Total: s.Genesis.Total, HighestTimeSeen: s.Genesis.HighestTimeSeen}

	r := record{configBytes: layout.EncodeConfig(cfg), genesis: genesis}
	if err := engine.ValidateGenesis(r.configBytes, layout.EncodeState(genesis)); err != nil {
		return record{}, fmt.Errorf("invalid genesis: %w", err)
	}
	return r, nil
}

// executeSteps validates each step against the record's current state.
//
// Accepted steps with a successor replace the current state; an accepted
// close ends the record, and any later step is a scenario error.
func (h *Harness) executeSteps(ctx context.Context, rec record, steps []Step, result *Result) error {
	current := rec.genesis
	closed := false

	for i, step := range steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i)
		}
		if closed {
			return fmt.Errorf("step %s: record was closed by an earlier step", name)
		}

		tx, next, err := buildTransition(rec.configBytes, current, step)
		if err != nil {
			return fmt.Errorf("step %s: %w", name, err)
		}

		h.rejected = nil
		verdict, verr := h.validator.Validate(tx)
		decided := verdict
		if verr != nil {
			decided = h.rejected
		}

		entry, err := store.NewEntry(h.runID, tx, decided, verr)
		if err != nil {
			return fmt.Errorf("step %s: %w", name, err)
		}
		if _, err := h.store.WriteEntry(ctx, entry); err != nil {
			return fmt.Errorf("step %s: failed to journal: %w", name, err)
		}

		event := TraceEvent{
			Step:       name,
			Outcome:    entry.Outcome,
			Kind:       entry.Kind,
			Code:       entry.Code,
			To:         entry.ToStatus,
			TrustedNow: entry.TrustedNow,
			Vested:     entry.Vested,
			Old:        current,
			Next:       next,
		}
		if verdict != nil {
			event.Seq = verdict.Seq
		}
		result.AddTrace(event)

		for _, msg := range checkExpect(name, step.Expect, event) {
			result.AddError(msg)
		}

		if verr == nil {
			result.Status = verdict.To
			if tx.HasSuccessor() {
				st, err := layout.DecodeState(tx.NewState)
				if err != nil {
					return fmt.Errorf("step %s: accepted successor does not decode: %w", name, err)
				}
				current = st
			} else {
				closed = true
			}
		}

		h.logger.Info("scenario step completed",
			"step", name,
			"outcome", entry.Outcome,
			"kind", entry.Kind,
			"code", entry.Code,
		)
	}

	return nil
}

// buildTransition encodes a step against the current state. The returned
// state is the proposed successor, nil when the step closes the record.
func buildTransition(configBytes []byte, current ir.State, step Step) (*engine.Transition, *ir.State, error) {
	tx := &engine.Transition{
		OldConfig: configBytes,
		OldState:  layout.EncodeState(current),
		TimeRefs:  append([]uint64(nil), step.TimeRefs...),
		Inputs:    1,
		Outputs:   1,
	}

	for _, signer := range step.Signers {
		h, err := resolveSigner(signer)
		if err != nil {
			return nil, nil, err
		}
		tx.Credentials = append(tx.Credentials, h)
	}

	var next *ir.State
	if step.Close {
		tx.Outputs = 0
	} else {
		st, err := applyOverrides(current, step.Next)
		if err != nil {
			return nil, nil, err
		}
		next = &st
		tx.NewConfig = configBytes
		tx.NewState = layout.EncodeState(st)
	}

	if step.Inputs != nil {
		tx.Inputs = *step.Inputs
	}
	if step.Outputs != nil {
		tx.Outputs = *step.Outputs
	}

	if raw := step.Raw; raw != nil {
		for _, r := range []struct {
			hex string
			dst *[]byte
		}{
			{raw.OldConfig, &tx.OldConfig},
			{raw.OldState, &tx.OldState},
			{raw.NewConfig, &tx.NewConfig},
			{raw.NewState, &tx.NewState},
		} {
			if r.hex == "" {
				continue
			}
			b, err := layout.ParseHex(r.hex)
			if err != nil {
				return nil, nil, fmt.Errorf("raw buffer: %w", err)
			}
			*r.dst = b
		}
	}

	return tx, next, nil
}

// applyOverrides copies base and replaces the fields named in overrides.
// Unknown keys and negative amounts are errors.
func applyOverrides(base ir.State, overrides map[string]any) (ir.State, error) {
	next := base
	if len(overrides) == 0 {
		return next, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &next,
		ErrorUnused: true,
	})
	if err != nil {
		return ir.State{}, err
	}
	if err := dec.Decode(overrides); err != nil {
		return ir.State{}, fmt.Errorf("next: %w", err)
	}
	return next, nil
}

// resolveSigner maps a well-known alias or a hex hash to a credential.
func resolveSigner(s string) (ir.Hash32, error) {
	switch s {
	case "creator":
		return testutil.CreatorHash, nil
	case "beneficiary":
		return testutil.BeneficiaryHash, nil
	case "stranger":
		return testutil.StrangerHash, nil
	}
	return ir.ParseHash32(s)
}

// checkExpect compares a step decision with its expectation.
func checkExpect(step string, want Expect, got TraceEvent) []string {
	var errs []string

	if string(got.Outcome) != want.Outcome {
		msg := fmt.Sprintf("step %s: expected outcome %s, got %s", step, want.Outcome, got.Outcome)
		if got.Code != "" {
			msg += fmt.Sprintf(" (%s)", got.Code)
		}
		return append(errs, msg)
	}

	if want.Code != "" {
		code, err := ir.ParseCode(want.Code)
		if err != nil {
			return append(errs, fmt.Sprintf("step %s: %v", step, err))
		}
		if code != got.Code {
			errs = append(errs, fmt.Sprintf("step %s: expected code %s, got %s", step, code, got.Code))
		}
	}
	if want.Kind != "" && want.Kind != got.Kind {
		errs = append(errs, fmt.Sprintf("step %s: expected kind %s, got %q", step, want.Kind, got.Kind))
	}
	if want.To != "" && ir.Status(want.To) != got.To {
		errs = append(errs, fmt.Sprintf("step %s: expected status %s, got %s", step, want.To, got.To))
	}
	if want.Vested != nil && *want.Vested != got.Vested {
		errs = append(errs, fmt.Sprintf("step %s: expected vested %d, got %d", step, *want.Vested, got.Vested))
	}
	return errs
}
