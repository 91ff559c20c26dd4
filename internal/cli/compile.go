package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vestlock/internal/compiler"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledSchedule is one schedule as the host would create it.
type CompiledSchedule struct {
	Name     string    `json:"name"`
	RecordID string    `json:"record_id"`
	Config   string    `json:"config"`
	State    string    `json:"state"`
	Schedule ir.Config `json:"schedule"`
	Genesis  ir.State  `json:"genesis"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schedules-dir>",
		Short: "Compile CUE vesting schedules to record buffers",
		Long: `Compile CUE vesting schedules into genesis record buffers.

Every .cue file in the directory is loaded as one instance. Each field under
"schedule" is checked against the schedule schema and the creation rules,
then encoded as configuration and state hex.

Example schedule:
  schedule: grant: {
    creator:     "0xc1c1..."
    beneficiary: "0xb1b1..."
    start: 100
    end:   200
    cliff: 120
    total: 1000
  }`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return outputCompileError(formatter, ErrCodeNotFound, fmt.Sprintf("schedules directory not found: %s", dir))
	}

	schedules, err := compiler.LoadSchedules(dir)
	if err != nil {
		code, message := parseCompileError(err)
		var compileErr *compiler.CompileError
		if formatter.Format != "json" && errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				compileErr.Pos.Filename(), compileErr.Pos.Line(), compileErr.Pos.Column())
		}
		return outputCompileError(formatter, code, message)
	}

	compiled := make([]CompiledSchedule, len(schedules))
	for i, s := range schedules {
		formatter.VerboseLog("Compiled schedule: %s", s.Name)
		compiled[i] = CompiledSchedule{
			Name:     s.Name,
			RecordID: s.RecordID,
			Config:   layout.Hex(s.ConfigBytes),
			State:    layout.Hex(s.StateBytes),
			Schedule: s.Config,
			Genesis:  s.Genesis,
		}
	}

	if opts.Output != "" {
		if err := writeSchedulesToFile(compiled, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, compiled, opts.Output)
}

func outputCompileSuccess(formatter *OutputFormatter, compiled []CompiledSchedule, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(compiled)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d schedule(s)\n\n", len(compiled))
	for _, s := range compiled {
		fmt.Fprintf(formatter.Writer, "%s: %s\n", s.Name, s.RecordID)
		fmt.Fprintf(formatter.Writer, "  total %d, start %d, cliff %d, end %d\n",
			s.Genesis.Total, s.Schedule.Start, s.Schedule.Cliff, s.Schedule.End)
		fmt.Fprintf(formatter.Writer, "  config: %s\n", s.Config)
		fmt.Fprintf(formatter.Writer, "  state:  %s\n", s.State)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote schedules to %s\n", outputFile)
	}
	return nil
}

// outputCompileError reports a compilation failure. These are command-level
// errors (exit code 2).
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	}
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// parseCompileError maps compiler and genesis errors to CLI codes.
func parseCompileError(err error) (string, string) {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		if strings.HasPrefix(compileErr.Message, "float values") {
			return ErrCodeInvalidType, err.Error()
		}
		return ErrCodeSchema, err.Error()
	}
	var rejectErr *ir.RejectError
	if errors.As(err, &rejectErr) {
		return ErrCodeGenesis, err.Error()
	}
	return ErrCodeBuildFailed, err.Error()
}

// writeSchedulesToFile writes compiled schedules as indented JSON.
func writeSchedulesToFile(compiled []CompiledSchedule, filename string) error {
	data, err := json.MarshalIndent(compiled, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling schedules: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
