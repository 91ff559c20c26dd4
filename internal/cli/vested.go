package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/vesting"
)

// VestedOptions holds flags for the vested command.
type VestedOptions struct {
	*RootOptions
	Start          uint64
	End            uint64
	Cliff          uint64
	Total          uint64
	CreatorClaimed uint64
	Claimed        uint64 // beneficiary_claimed, for the claimable figure
	Now            uint64
}

// VestedResult is the output of the vested command.
type VestedResult struct {
	Now       uint64 `json:"now"`
	Vested    uint64 `json:"vested"`
	Claimable uint64 `json:"claimable"`
}

// NewVestedCommand creates the vested command.
func NewVestedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VestedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "vested",
		Short: "Compute the vested amount at a time point",
		Long: `Compute how much of a grant has vested at --now.

Nothing vests before the start or the cliff. Between start and end the amount
grows linearly, truncating toward zero. A terminated grant (--creator-claimed
greater than zero) is fully vested: total minus what the creator reclaimed.

Examples:
  vestlock vested --start 100 --end 200 --cliff 120 --total 1000 --now 150
  vestlock vested --start 100 --end 200 --cliff 100 --total 1000 --creator-claimed 700 --now 0`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVested(opts, cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Start, "start", 0, "vesting start time point")
	cmd.Flags().Uint64Var(&opts.End, "end", 0, "vesting end time point")
	cmd.Flags().Uint64Var(&opts.Cliff, "cliff", 0, "cliff time point")
	cmd.Flags().Uint64Var(&opts.Total, "total", 0, "total grant amount")
	cmd.Flags().Uint64Var(&opts.CreatorClaimed, "creator-claimed", 0, "amount reclaimed by the creator on termination")
	cmd.Flags().Uint64Var(&opts.Claimed, "claimed", 0, "amount already claimed by the beneficiary")
	cmd.Flags().Uint64Var(&opts.Now, "now", 0, "trusted time point")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("now")

	return cmd
}

func runVested(opts *VestedOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg := ir.Config{Start: opts.Start, End: opts.End, Cliff: opts.Cliff}
	st := ir.State{Total: opts.Total, BeneficiaryClaimed: opts.Claimed, CreatorClaimed: opts.CreatorClaimed}

	v, err := vesting.At(opts.Now, cfg, st)
	if err != nil {
		_ = formatter.Error(string(ir.CodeOf(err)), err.Error(), nil)
		return WrapExitError(ExitFailure, "vesting computation failed", err)
	}
	claimable, err := vesting.Claimable(opts.Now, cfg, st)
	if err != nil {
		_ = formatter.Error(string(ir.CodeOf(err)), err.Error(), nil)
		return WrapExitError(ExitFailure, "vesting computation failed", err)
	}

	result := VestedResult{Now: opts.Now, Vested: v, Claimable: claimable}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "vested at %d: %d of %d\n", result.Now, result.Vested, opts.Total)
	fmt.Fprintf(formatter.Writer, "claimable: %d\n", result.Claimable)
	return nil
}
