// Package store provides the SQLite trace log for arcade sessions.
//
// The log is append-only and holds two record kinds:
//   - Sessions: one row per Star Match session or Tic-Tac-Toe game, with
//     the PRNG seed that reproduces it
//   - Actions: one row per processed action (ticks included), with the
//     JSON snapshot it produced
//
// The trace is a debugging artifact for the trace and replay commands. It
// is never loaded to resume a game.
//
// # Ordering
//
// All ordering uses seq, the engine's logical clock, never timestamps.
// Queries include ORDER BY seq ASC, id ASC COLLATE BINARY so results are
// identical across runs.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Writing the same record twice is a
// no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s on lock contention
//   - foreign_keys=ON: Actions must reference a recorded session
package store
