// Package store provides a SQLite-backed journal of validation verdicts.
//
// The journal is append-only. Each row records one proposed transition (as
// hex buffers and canonical JSON) together with the decision taken on it,
// so a run can be replayed against a newer validator to detect drift.
//
// # Critical Patterns
//
// Idempotency:
//   - UNIQUE(run_id, transition_id) with ON CONFLICT DO NOTHING
//   - transition_id is content-addressed, so rewriting a run is a no-op
//
// Logical ordering:
//   - All ordering uses seq INTEGER, never timestamps
//   - Queries order by seq ASC
//
// Lossless integers:
//   - uint64 values are stored as decimal TEXT
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: 5-second lock wait
//   - Single connection: one writer, and in-memory journals stay alive
package store
