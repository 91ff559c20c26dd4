package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/metrics"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Metrics bool   // dump verdict counters to stderr after the command

	registry *prometheus.Registry
	recorder *metrics.Recorder
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vestlock CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vestlock",
		Short: "vestlock - vesting record transition validator",
		Long: `Validate proposed transitions of time-locked vesting records.

A record holds a fixed total for a beneficiary that unlocks linearly between
start and end after a cliff. The creator may terminate once and reclaim what
the beneficiary has not claimed. Every transition is accepted or rejected with
a single reason code.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print verdict counters to stderr when done")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewVestedCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logger returns a text logger on w. Verbose mode enables validator debug
// records; otherwise only warnings and errors are written.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// hooks returns validator hooks for the metrics recorder, creating it on
// first use. Returns the zero Hooks when --metrics is off.
func (o *RootOptions) hooks() (engine.Hooks, error) {
	if !o.Metrics {
		return engine.Hooks{}, nil
	}
	if o.recorder == nil {
		reg := prometheus.NewRegistry()
		rec, err := metrics.NewRecorder(reg)
		if err != nil {
			return engine.Hooks{}, err
		}
		o.registry = reg
		o.recorder = rec
	}
	return o.recorder.Hooks(), nil
}

// validatorOptions builds engine options from the global flags.
func (o *RootOptions) validatorOptions(cmd *cobra.Command) ([]engine.EngineOption, error) {
	h, err := o.hooks()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to register metrics", err)
	}
	return []engine.EngineOption{
		engine.WithLogger(o.logger(cmd.ErrOrStderr())),
		engine.WithHooks(h),
	}, nil
}

// flushMetrics writes the collected counters to stderr when --metrics is set.
func (o *RootOptions) flushMetrics(cmd *cobra.Command) {
	if o.registry == nil {
		return
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintln(w, "# metrics")
	if err := metrics.Dump(o.registry, w); err != nil {
		fmt.Fprintf(w, "metrics dump failed: %v\n", err)
	}
}
