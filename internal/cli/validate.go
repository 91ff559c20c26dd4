package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/store"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Journal string // optional SQLite journal path
	RunID   string // journal run ID; generated when empty
}

// ValidationResult is the decision for one transition.
type ValidationResult struct {
	Outcome      store.Outcome   `json:"outcome"`
	TransitionID string          `json:"transition_id"`
	Verdict      *engine.Verdict `json:"verdict,omitempty"`
	Code         ir.Code         `json:"code,omitempty"`
	HostExitCode int             `json:"host_exit_code"`
	Message      string          `json:"message,omitempty"`
	RunID        string          `json:"run_id,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <transition.yaml>",
		Short: "Validate one proposed transition",
		Long: `Validate a proposed transition of a vesting record.

The transition file carries the old and new record buffers as hex, the
credential hashes that signed and the trusted time references. The result is
accepted or rejected with exactly one reason code.

Exit codes:
  0 - Transition accepted
  1 - Transition rejected
  2 - Command error (unreadable file, journal failure, etc.)

Examples:
  vestlock validate claim.yaml
  vestlock validate claim.yaml --journal ./vestlock.db
  vestlock validate claim.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer opts.flushMetrics(cmd)
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the decision in this SQLite journal")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "journal run ID (default: new UUIDv7)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	t, err := LoadTransition(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		} else {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "failed to load transition", err)
	}

	engineOpts, err := opts.validatorOptions(cmd)
	if err != nil {
		return err
	}
	var partial *engine.Verdict
	engineOpts = append(engineOpts, engine.WithHooks(engine.Hooks{
		OnReject: func(_ *engine.Transition, v *engine.Verdict, _ error) {
			partial = v
		},
	}))
	validator := engine.New(engineOpts...)

	verdict, verr := validator.Validate(t)

	result := ValidationResult{Outcome: store.OutcomeAccept, Verdict: verdict}
	if id, err := t.ID(); err == nil {
		result.TransitionID = id
	}
	if verr != nil {
		result.Outcome = store.OutcomeReject
		result.Code = ir.CodeOf(verr)
		result.HostExitCode = result.Code.ExitCode()
		result.Message = verr.Error()
	}

	if opts.Journal != "" {
		decided := verdict
		if verr != nil {
			decided = partial
		}
		runID, err := journalDecision(opts, t, decided, verr)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to journal decision", err)
		}
		result.RunID = runID
		formatter.VerboseLog("Journaled %s under run %s", shortHash(result.TransitionID), runID)
	}

	if err := outputValidation(formatter, result); err != nil {
		return err
	}
	if verr != nil {
		return WrapExitError(ExitFailure, "transition rejected", verr)
	}
	return nil
}

// journalDecision writes one entry. Returns the run ID used.
func journalDecision(opts *ValidateOptions, t *engine.Transition, verdict *engine.Verdict, verr error) (string, error) {
	st, err := store.Open(opts.Journal)
	if err != nil {
		return "", err
	}
	defer st.Close()

	runID := opts.RunID
	if runID == "" {
		runID = store.UUIDv7Generator{}.Generate()
	}
	entry, err := store.NewEntry(runID, t, verdict, verr)
	if err != nil {
		return "", err
	}
	if _, err := st.WriteEntry(context.Background(), entry); err != nil {
		return "", err
	}
	return runID, nil
}

func outputValidation(f *OutputFormatter, r ValidationResult) error {
	if f.Format == "json" {
		if r.Outcome == store.OutcomeReject {
			return f.encode(CLIResponse{
				Status: "error",
				Data:   r,
				Error:  &CLIError{Code: string(r.Code), Message: r.Message},
			})
		}
		return f.encode(CLIResponse{Status: "ok", Data: r})
	}

	w := f.Writer
	if r.Outcome == store.OutcomeReject {
		fmt.Fprintf(w, "✗ rejected: %s (host code %d)\n", r.Code, r.HostExitCode)
		fmt.Fprintf(w, "  %s\n", r.Message)
		fmt.Fprintf(w, "  transition: %s\n", shortHash(r.TransitionID))
		return nil
	}

	v := r.Verdict
	fmt.Fprintf(w, "✓ accepted: %s (%s → %s)\n", v.Kind, v.From, v.To)
	fmt.Fprintf(w, "  record: %s\n", shortHash(v.RecordID))
	fmt.Fprintf(w, "  transition: %s\n", shortHash(r.TransitionID))
	fmt.Fprintf(w, "  trusted_now: %d  vested: %d\n", v.TrustedNow, v.Vested)
	return nil
}

func shortHash(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}
