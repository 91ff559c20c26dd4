package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
	"github.com/roach88/vestlock/internal/testutil"
)

// claimFile is a beneficiary claim of 500 at time 150 on the reference
// schedule, which vests exactly 500 at that point.
func claimFile(claimed uint64) TransitionFile {
	cfg := layout.Hex(testutil.ConfigBytes(testutil.LinearConfig()))
	return TransitionFile{
		OldConfig:   cfg,
		OldState:    layout.Hex(testutil.StateBytes(testutil.Active(1000, 100))),
		NewConfig:   cfg,
		NewState:    layout.Hex(testutil.StateBytes(ir.State{Total: 1000, BeneficiaryClaimed: claimed, HighestTimeSeen: 150})),
		Credentials: []string{testutil.BeneficiaryHash.String()},
		TimeRefs:    []uint64{150},
	}
}

func mustYAML(t *testing.T, f TransitionFile) []byte {
	t.Helper()
	data, err := yaml.Marshal(f)
	require.NoError(t, err)
	return data
}

func writeTransitionFile(t *testing.T, f TransitionFile) string {
	t.Helper()
	data := mustYAML(t, f)
	path := filepath.Join(t.TempDir(), "transition.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
