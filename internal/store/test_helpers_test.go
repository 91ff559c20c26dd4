package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/testutil"
)

// createTestStore opens a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// claimTx is a beneficiary claim against the reference schedule.
func claimTx(oldBC, newBC, now uint64) *engine.Transition {
	cfg := testutil.ConfigBytes(testutil.LinearConfig())
	return &engine.Transition{
		OldConfig:   cfg,
		OldState:    testutil.StateBytes(ir.State{Total: 1000, BeneficiaryClaimed: oldBC, HighestTimeSeen: 120}),
		NewConfig:   cfg,
		NewState:    testutil.StateBytes(ir.State{Total: 1000, BeneficiaryClaimed: newBC, HighestTimeSeen: now}),
		Credentials: []ir.Hash32{testutil.BeneficiaryHash},
		TimeRefs:    []uint64{now},
		Inputs:      1,
		Outputs:     1,
	}
}

// journal validates tx and builds its entry for runID.
func journal(t *testing.T, runID string, tx *engine.Transition) Entry {
	t.Helper()
	verdict, err := engine.Validate(tx)
	e, entryErr := NewEntry(runID, tx, verdict, err)
	if entryErr != nil {
		t.Fatalf("NewEntry() failed: %v", entryErr)
	}
	return e
}
