package engine

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/roach88/vestlock/internal/authz"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
)

// Verdict describes an accepted transition.
type Verdict struct {
	// Seq orders verdicts issued by the same Validator.
	Seq int64 `json:"seq"`

	// TransitionID is the content-addressed ID of the proposed transition.
	TransitionID string `json:"transition_id"`

	// RecordID identifies the record by its configuration bytes.
	RecordID string `json:"record_id"`

	Kind Kind        `json:"kind"`
	Auth authz.Class `json:"auth"`
	From ir.Status   `json:"from"`
	To   ir.Status   `json:"to"`

	// TrustedNow is the maximum supplied time reference.
	TrustedNow uint64 `json:"trusted_now"`

	// Vested is the amount vested at TrustedNow against the old state.
	Vested uint64 `json:"vested"`
}

// Hooks observe validation outcomes. Either field may be nil.
//
// On rejection the verdict carries whatever was established before the
// failing check; Kind is empty if selection was not reached.
type Hooks struct {
	OnAccept func(t *Transition, v *Verdict)
	OnReject func(t *Transition, v *Verdict, err error)
}

// Validator checks proposed transitions.
//
// Thread-safety: safe for concurrent use. Hooks must be safe for concurrent
// use if Validate is called from several goroutines.
type Validator struct {
	logger *slog.Logger
	clock  *Clock
	hooks  []Hooks
}

// EngineOption configures a Validator.
type EngineOption func(*Validator)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *slog.Logger) EngineOption {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithHooks registers outcome hooks. May be given more than once; hooks run
// in registration order.
func WithHooks(h Hooks) EngineOption {
	return func(v *Validator) {
		v.hooks = append(v.hooks, h)
	}
}

// WithClock sets the sequence clock. Replay uses this to continue numbering.
func WithClock(c *Clock) EngineOption {
	return func(v *Validator) {
		if c != nil {
			v.clock = c
		}
	}
}

// New creates a Validator.
func New(opts ...EngineOption) *Validator {
	v := &Validator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  NewClock(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate decides whether t is a legal transition.
//
// Returns a Verdict on acceptance. On rejection the error is always a
// *ir.RejectError.
func (v *Validator) Validate(t *Transition) (*Verdict, error) {
	if t == nil {
		return nil, ir.Reject(ir.CodeInvalidTransactionStructure, "no transition supplied")
	}
	verdict := &Verdict{}
	if id, err := t.ID(); err == nil {
		verdict.TransitionID = id
	}

	err := v.validate(t, verdict)
	if err != nil {
		v.logger.Debug("transition rejected",
			"transition", shortID(verdict.TransitionID),
			"record", shortID(verdict.RecordID),
			"kind", verdict.Kind,
			"code", ir.CodeOf(err),
			"error", err,
		)
		for _, h := range v.hooks {
			if h.OnReject != nil {
				h.OnReject(t, verdict, err)
			}
		}
		return nil, err
	}

	verdict.Seq = v.clock.Next()
	v.logger.Debug("transition accepted",
		"seq", verdict.Seq,
		"transition", shortID(verdict.TransitionID),
		"record", shortID(verdict.RecordID),
		"kind", verdict.Kind,
		"auth", verdict.Auth,
		"from", verdict.From,
		"to", verdict.To,
		"trusted_now", verdict.TrustedNow,
		"vested", verdict.Vested,
	)
	for _, h := range v.hooks {
		if h.OnAccept != nil {
			h.OnAccept(t, verdict)
		}
	}
	return verdict, nil
}

func (v *Validator) validate(t *Transition, verdict *Verdict) error {
	if err := checkCardinality(t); err != nil {
		return err
	}

	cfg, err := layout.DecodeConfig(t.OldConfig)
	if err != nil {
		return err
	}
	old, err := layout.DecodeState(t.OldState)
	if err != nil {
		return err
	}
	verdict.RecordID = ir.RecordID(t.OldConfig)
	verdict.From = ir.StatusOf(old)

	var next *ir.State
	if t.HasSuccessor() {
		if _, err := layout.DecodeConfig(t.NewConfig); err != nil {
			return err
		}
		st, err := layout.DecodeState(t.NewState)
		if err != nil {
			return err
		}
		if !bytes.Equal(t.OldConfig, t.NewConfig) {
			return ir.Reject(ir.CodeInvalidTransactionStructure, "configuration must be byte-identical across a transition")
		}
		next = &st
	}

	if err := cfg.CheckOrdering(); err != nil {
		return err
	}

	now, err := TrustedNow(t.TimeRefs)
	if err != nil {
		return err
	}
	verdict.TrustedNow = now
	if now < old.HighestTimeSeen {
		return ir.Reject(ir.CodeStaleHeader, "trusted time is behind the recorded high-water mark").
			With("trusted_now", now).
			With("highest_time_seen", old.HighestTimeSeen)
	}

	// A forged record could break conservation before any rule sees it.
	if err := old.CheckConservation(); err != nil {
		return err
	}

	verdict.Auth = authz.Classify(cfg, t.Credentials)
	kind, err := SelectKind(verdict.Auth, old, next)
	if err != nil {
		return err
	}
	verdict.Kind = kind

	in := ruleInput{cfg: cfg, old: old, next: next, now: now}
	if err := checkSuccessor(in); err != nil {
		return err
	}
	res, err := rules[kind](in)
	if err != nil {
		return err
	}
	if next != nil {
		if err := next.CheckConservation(); err != nil {
			return err
		}
	}
	verdict.To = res.to
	verdict.Vested = res.vested
	return nil
}

// ValidateGenesis checks a freshly created record. Creation itself happens
// outside this package; the configuration invariants and zeroed claim
// counters are enforced here.
func ValidateGenesis(configBytes, stateBytes []byte) error {
	cfg, err := layout.DecodeConfig(configBytes)
	if err != nil {
		return err
	}
	st, err := layout.DecodeState(stateBytes)
	if err != nil {
		return err
	}
	if err := cfg.CheckOrdering(); err != nil {
		return err
	}
	if st.BeneficiaryClaimed != 0 || st.CreatorClaimed != 0 {
		return ir.Reject(ir.CodeInvalidAmount, "new record must start with no claims").
			With("beneficiary_claimed", st.BeneficiaryClaimed).
			With("creator_claimed", st.CreatorClaimed)
	}
	return nil
}

var defaultValidator = New()

// Validate checks t with a default Validator.
func Validate(t *Transition) (*Verdict, error) {
	return defaultValidator.Validate(t)
}

func shortID(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}
