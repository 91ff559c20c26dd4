package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/vestlock/internal/ir"
)

const entryColumns = `seq, run_id, transition_id, record_id, old_config, old_state,
	new_config, new_state, credentials, time_refs, inputs, outputs, outcome,
	kind, code, to_status, trusted_now, vested, engine_version`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                       Entry
		creds, refs             string
		outcome, code, toStatus string
		trustedNow, vested      string
	)
	err := row.Scan(
		&e.Seq, &e.RunID, &e.TransitionID, &e.RecordID, &e.OldConfig, &e.OldState,
		&e.NewConfig, &e.NewState, &creds, &refs, &e.Inputs, &e.Outputs, &outcome,
		&e.Kind, &code, &toStatus, &trustedNow, &vested, &e.EngineVersion,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	if e.Credentials, err = unmarshalStrings(creds); err != nil {
		return Entry{}, err
	}
	if e.TimeRefs, err = unmarshalUints(refs); err != nil {
		return Entry{}, err
	}
	if e.TrustedNow, err = parseUint("trusted_now", trustedNow); err != nil {
		return Entry{}, err
	}
	if e.Vested, err = parseUint("vested", vested); err != nil {
		return Entry{}, err
	}
	e.Outcome = Outcome(outcome)
	e.Code = ir.Code(code)
	e.ToStatus = ir.Status(toStatus)
	return e, nil
}

// ReadRun returns all entries of a run ordered by seq.
// Returns an empty slice (not nil) for an unknown run.
func (s *Store) ReadRun(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// ListRuns returns every run ID ordered by its first entry.
func (s *Store) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id
		FROM entries
		GROUP BY run_id
		ORDER BY MIN(seq) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		runs = append(runs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestState returns the successor state hex of the most recent accepted
// entry for a record that produced a successor. found is false if the record
// has no such entry in the run.
func (s *Store) LatestState(ctx context.Context, runID, recordID string) (string, bool, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `
		SELECT new_state
		FROM entries
		WHERE run_id = ? AND record_id = ? AND outcome = 'accept' AND outputs = 1
		ORDER BY seq DESC
		LIMIT 1
	`, runID, recordID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("latest state: %w", err)
	}
	return state, true, nil
}

// CountEntries returns the number of entries in a run grouped by outcome.
func (s *Store) CountEntries(ctx context.Context, runID string) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM entries
		WHERE run_id = ?
		GROUP BY outcome
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	defer rows.Close()

	counts := map[Outcome]int{}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Outcome(outcome)] = n
	}
	return counts, rows.Err()
}
