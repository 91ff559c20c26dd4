package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
	"github.com/roach88/vestlock/internal/testutil"
)

func TestDecodeText(t *testing.T) {
	cfg := layout.Hex(testutil.ConfigBytes(testutil.LinearConfig()))
	st := layout.Hex(testutil.StateBytes(ir.State{Total: 1000, BeneficiaryClaimed: 300, CreatorClaimed: 700, HighestTimeSeen: 160}))

	out, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}), "--config", cfg, "--state", st)
	require.NoError(t, err)
	assert.Contains(t, out, "record: "+ir.RecordID(testutil.ConfigBytes(testutil.LinearConfig())))
	assert.Contains(t, out, "beneficiary: "+testutil.BeneficiaryHash.String())
	assert.Contains(t, out, "start: 100  cliff: 120  end: 200")
	assert.Contains(t, out, "state (terminated)")
	assert.Contains(t, out, "creator_claimed:     700")
	assert.NotContains(t, out, "✗")
}

func TestDecodeJSON(t *testing.T) {
	st := layout.Hex(testutil.StateBytes(testutil.Active(1000, 100)))

	out, err := execute(NewDecodeCommand(&RootOptions{Format: "json"}), "--state", st)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   DecodeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Data.Config)
	require.NotNil(t, resp.Data.State)
	assert.Equal(t, testutil.Active(1000, 100), *resp.Data.State)
	assert.Equal(t, ir.StatusActive, resp.Data.Status)
}

func TestDecodeReportsViolations(t *testing.T) {
	cfg := testutil.LinearConfig()
	cfg.Start, cfg.End = 200, 100
	st := ir.State{Total: 10, BeneficiaryClaimed: 8, CreatorClaimed: 8}

	out, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}),
		"--config", layout.Hex(testutil.ConfigBytes(cfg)),
		"--state", layout.Hex(testutil.StateBytes(st)))
	require.NoError(t, err)
	assert.Contains(t, out, "✗ INVALID_EPOCH_ORDERING")
	assert.Contains(t, out, "✗ INVALID_AMOUNT")
}

func TestDecodeMalformed(t *testing.T) {
	out, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}), "--state", "0x0102")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "MALFORMED_LAYOUT")
}

func TestDecodeInvalidHex(t *testing.T) {
	_, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}), "--config", "0xnothex")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDecodeNothing(t *testing.T) {
	out, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeInvalidInput)
}
