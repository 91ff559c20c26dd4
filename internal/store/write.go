package store

import (
	"context"
	"fmt"
)

// WriteEntry appends an entry to the journal.
// Uses ON CONFLICT DO NOTHING for idempotency: rewriting the same transition
// in the same run is silently ignored and reported as inserted=false.
// The Seq field of e is ignored; the journal assigns it.
func (s *Store) WriteEntry(ctx context.Context, e Entry) (bool, error) {
	if e.RunID == "" || e.TransitionID == "" {
		return false, fmt.Errorf("write entry: run_id and transition_id are required")
	}

	creds, err := marshalStrings(e.Credentials)
	if err != nil {
		return false, fmt.Errorf("write entry: %w", err)
	}
	refs, err := marshalUints(e.TimeRefs)
	if err != nil {
		return false, fmt.Errorf("write entry: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries
		(run_id, transition_id, record_id, old_config, old_state, new_config, new_state,
		 credentials, time_refs, inputs, outputs, outcome, kind, code, to_status,
		 trusted_now, vested, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, transition_id) DO NOTHING
	`,
		e.RunID,
		e.TransitionID,
		e.RecordID,
		e.OldConfig,
		e.OldState,
		e.NewConfig,
		e.NewState,
		creds,
		refs,
		e.Inputs,
		e.Outputs,
		string(e.Outcome),
		e.Kind,
		string(e.Code),
		string(e.ToStatus),
		formatUint(e.TrustedNow),
		formatUint(e.Vested),
		e.EngineVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write entry: %w", err)
	}
	return n == 1, nil
}
