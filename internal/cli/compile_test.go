package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vestlock/internal/layout"
	"github.com/roach88/vestlock/internal/testutil"
)

func writeSchedule(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	src := "package schedules\n\nschedule: grant: {\n" +
		"\tcreator:     \"" + testutil.CreatorHash.String() + "\"\n" +
		"\tbeneficiary: \"" + testutil.BeneficiaryHash.String() + "\"\n" +
		body + "\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grants.cue"), []byte(src), 0o644))
	return dir
}

func TestCompileSchedules(t *testing.T) {
	dir := writeSchedule(t, "\tstart: 100, end: 200, cliff: 120, total: 1000, highest_time_seen: 100")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 1 schedule(s)")
	assert.Contains(t, out, "total 1000, start 100, cliff 120, end 200")
	assert.Contains(t, out, "config: "+layout.Hex(testutil.ConfigBytes(testutil.LinearConfig())))
	assert.Contains(t, out, "state:  "+layout.Hex(testutil.StateBytes(testutil.Active(1000, 100))))
}

func TestCompileSchedulesJSONWithOutput(t *testing.T) {
	dir := writeSchedule(t, "\tstart: 100, end: 200, cliff: 120, total: 1000")
	outFile := filepath.Join(t.TempDir(), "schedules.json")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir, "-o", outFile)
	require.NoError(t, err)

	var resp struct {
		Status string             `json:"status"`
		Data   []CompiledSchedule `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "grant", resp.Data[0].Name)
	assert.Equal(t, uint64(1000), resp.Data[0].Genesis.Total)

	written, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var compiled []CompiledSchedule
	require.NoError(t, json.Unmarshal(written, &compiled))
	assert.Equal(t, resp.Data, compiled)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing total", "\tstart: 100, end: 200, cliff: 120", ErrCodeSchema},
		{"float amount", "\tstart: 100, end: 200, cliff: 120, total: 1.5", ErrCodeInvalidType},
		{"bad ordering", "\tstart: 200, end: 100, cliff: 150, total: 1000", ErrCodeGenesis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeSchedule(t, tt.body)

			out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestCompileMissingDirectory(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/schedules")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "✗ Compilation failed")
}
