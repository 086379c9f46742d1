// Package store archives validation runs in SQLite.
//
// One run writes, in a single transaction:
//   - runs: summary counts, digests and the full report as JSON
//   - failures: one row per invariant failure, with fix outcome
//   - structural_errors: grave and normal load errors
//   - fixes: the commit log of the correction engine
//   - snapshots: the final record set as canonical JSON
//
// Runs are ordered by a logical seq column allocated at write time; wall
// time is stored for display only. All queries order by seq, then by a
// per-run index, so results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
