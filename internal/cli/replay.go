package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string   `json:"run_id"`
	Accepted      int      `json:"accepted"`
	Rejected      int      `json:"rejected"`
	Deterministic bool     `json:"deterministic"`
	Differences   []string `json:"differences,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-validate a journal and verify determinism",
		Long: `Re-validate every journaled transition and compare the decisions.

Each entry's transition is rebuilt from its stored buffers and validated again
with a fresh validator. The outcome, rejection code, kind, resulting status,
trusted time point and vested amount must all match what was journaled.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  vestlock replay --db ./vestlock.db
  vestlock replay --db ./vestlock.db --run 0192...
  vestlock replay --db ./vestlock.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer opts.flushMetrics(cmd)
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	// store.Open would create an empty journal.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runIDs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	if len(runIDs) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{Runs: []ReplayRunResult{}, AllDeterministic: true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in journal.")
		return nil
	}

	engineOpts, err := opts.validatorOptions(cmd)
	if err != nil {
		return err
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns:        len(runIDs),
		AllDeterministic: true,
	}
	for _, runID := range runIDs {
		runResult, err := replayRun(ctx, st, runID, engineOpts)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", runID), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayRun re-validates one run's entries in journal order.
func replayRun(ctx context.Context, st *store.Store, runID string, engineOpts []engine.EngineOption) (ReplayRunResult, error) {
	entries, err := st.ReadRun(ctx, runID)
	if err != nil {
		return ReplayRunResult{}, err
	}
	counts, err := st.CountEntries(ctx, runID)
	if err != nil {
		return ReplayRunResult{}, err
	}

	validator := engine.New(engineOpts...)
	res := ReplayRunResult{
		RunID:         runID,
		Accepted:      counts[store.OutcomeAccept],
		Rejected:      counts[store.OutcomeReject],
		Deterministic: true,
	}
	for _, e := range entries {
		t, err := e.Transition()
		if err != nil {
			return ReplayRunResult{}, err
		}
		verdict, verr := validator.Validate(t)
		for _, d := range e.Diff(verdict, verr) {
			res.Differences = append(res.Differences, fmt.Sprintf("seq %d (%s): %s", e.Seq, shortHash(e.TransitionID), d))
		}
	}
	res.Deterministic = len(res.Differences) == 0
	return res, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}

	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}
	if err := formatter.encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		fmt.Fprintf(w, "  Entries: %d accepted, %d rejected\n", run.Accepted, run.Rejected)

		if !run.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
			limit := len(run.Differences)
			if !verbose && limit > 5 {
				limit = 5
			}
			for _, d := range run.Differences[:limit] {
				fmt.Fprintf(w, "    %s\n", d)
			}
			if limit < len(run.Differences) {
				fmt.Fprintf(w, "    ... %d more (use --verbose)\n", len(run.Differences)-limit)
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
