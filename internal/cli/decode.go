package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Config string
	State  string
}

// DecodeResult holds whichever buffers were decoded.
type DecodeResult struct {
	RecordID string     `json:"record_id,omitempty"`
	Config   *ir.Config `json:"config,omitempty"`
	Status   ir.Status  `json:"status,omitempty"`
	State    *ir.State  `json:"state,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode configuration and state buffers",
		Long: `Decode record buffers given as hex.

The configuration is 88 bytes (creator hash, beneficiary hash, start, end,
cliff) and the state is 32 bytes (total, beneficiary_claimed,
creator_claimed, highest_time_seen). Integers are little-endian.

Examples:
  vestlock decode --config 0x... --state 0x...
  vestlock decode --state 0xe803000000000000... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "configuration buffer as hex")
	cmd.Flags().StringVar(&opts.State, "state", "", "state buffer as hex")

	return cmd
}

func runDecode(opts *DecodeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Config == "" && opts.State == "" {
		_ = formatter.Error(ErrCodeInvalidInput, "at least one of --config or --state is required", nil)
		return NewExitError(ExitCommandError, "nothing to decode")
	}

	var result DecodeResult
	if opts.Config != "" {
		raw, err := layout.ParseHex(opts.Config)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("--config: %v", err), nil)
			return WrapExitError(ExitCommandError, "invalid --config", err)
		}
		cfg, err := layout.DecodeConfig(raw)
		if err != nil {
			_ = formatter.Error(string(ir.CodeOf(err)), err.Error(), nil)
			return WrapExitError(ExitFailure, "malformed configuration", err)
		}
		result.RecordID = ir.RecordID(raw)
		result.Config = &cfg
	}
	if opts.State != "" {
		raw, err := layout.ParseHex(opts.State)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("--state: %v", err), nil)
			return WrapExitError(ExitCommandError, "invalid --state", err)
		}
		st, err := layout.DecodeState(raw)
		if err != nil {
			_ = formatter.Error(string(ir.CodeOf(err)), err.Error(), nil)
			return WrapExitError(ExitFailure, "malformed state", err)
		}
		result.State = &st
		result.Status = ir.StatusOf(st)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if c := result.Config; c != nil {
		fmt.Fprintf(w, "record: %s\n", result.RecordID)
		fmt.Fprintf(w, "  creator:     %s\n", c.Creator)
		fmt.Fprintf(w, "  beneficiary: %s\n", c.Beneficiary)
		fmt.Fprintf(w, "  start: %d  cliff: %d  end: %d\n", c.Start, c.Cliff, c.End)
		if err := c.CheckOrdering(); err != nil {
			fmt.Fprintf(w, "  ✗ %v\n", err)
		}
	}
	if s := result.State; s != nil {
		fmt.Fprintf(w, "state (%s)\n", result.Status)
		fmt.Fprintf(w, "  total:               %d\n", s.Total)
		fmt.Fprintf(w, "  beneficiary_claimed: %d\n", s.BeneficiaryClaimed)
		fmt.Fprintf(w, "  creator_claimed:     %d\n", s.CreatorClaimed)
		fmt.Fprintf(w, "  highest_time_seen:   %d\n", s.HighestTimeSeen)
		if err := s.CheckConservation(); err != nil {
			fmt.Fprintf(w, "  ✗ %v\n", err)
		}
	}
	return nil
}
