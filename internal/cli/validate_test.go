package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/store"
)

func TestValidateAccepted(t *testing.T) {
	path := writeTransitionFile(t, claimFile(500))

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ accepted: BeneficiaryClaim (active → active)")
	assert.Contains(t, out, "trusted_now: 150  vested: 500")
}

func TestValidateAcceptedJSON(t *testing.T) {
	path := writeTransitionFile(t, claimFile(500))

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, store.OutcomeAccept, resp.Data.Outcome)
	require.NotNil(t, resp.Data.Verdict)
	assert.Equal(t, uint64(500), resp.Data.Verdict.Vested)
	assert.NotEmpty(t, resp.Data.TransitionID)
}

func TestValidateRejected(t *testing.T) {
	path := writeTransitionFile(t, claimFile(600))

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, ir.IsCode(err, ir.CodeInsufficientVested))
	assert.Contains(t, out, "✗ rejected: INSUFFICIENT_VESTED (host code 21)")
}

func TestValidateRejectedJSON(t *testing.T) {
	f := claimFile(500)
	f.TimeRefs = []uint64{90}
	path := writeTransitionFile(t, f)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(ir.CodeStaleHeader), resp.Error.Code)
}

func TestValidateMissingFile(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/transition.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	opts := &RootOptions{Format: "text"}

	_, err := execute(NewValidateCommand(opts), writeTransitionFile(t, claimFile(500)), "--journal", db, "--run", "run-1")
	require.NoError(t, err)
	_, err = execute(NewValidateCommand(opts), writeTransitionFile(t, claimFile(600)), "--journal", db, "--run", "run-1")
	require.Error(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	entries, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, store.OutcomeAccept, entries[0].Outcome)
	assert.Equal(t, "BeneficiaryClaim", entries[0].Kind)
	assert.Equal(t, store.OutcomeReject, entries[1].Outcome)
	assert.Equal(t, ir.CodeInsufficientVested, entries[1].Code)
	// The partial verdict carries the kind of a rejected claim.
	assert.Equal(t, "BeneficiaryClaim", entries[1].Kind)
}

func TestValidateJournalGeneratesRunID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), writeTransitionFile(t, claimFile(500)), "--journal", db)
	require.NoError(t, err)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.Data.RunID)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "0123456789abcdef", shortHash("0123456789abcdef0123"))
}
