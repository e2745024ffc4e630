// Package store provides SQLite-backed durable storage for players,
// match results and the action journal.
//
// The store implements both collaborator ports of the engine:
//   - roster.Roster: players and their lifetime statistics
//   - engine.Journal: every processed command, plus decided results
//
// # Critical Patterns
//
// Logical time only:
//   - Journal ordering uses the engine's seq, NEVER timestamps
//   - Replaying a journal gives the same table regardless of wall time
//
// Deterministic query results:
//   - Journal reads use ORDER BY seq ASC
//   - Player reads use ORDER BY id COLLATE BINARY ASC
//
// Idempotent writes:
//   - A journal entry is keyed by (match_id, seq); rewriting it is a no-op
//   - A result is keyed by match_id; a resumed and re-decided match
//     replaces its earlier result
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
