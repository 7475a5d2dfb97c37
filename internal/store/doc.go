// Package store keeps a SQLite ledger of resolution passes.
//
// Each pass records who was resolved, against which ruleset (by content
// hash), the resulting goals and the outcome of every rule. The ledger is
// append-only; a pass is written once in a single transaction.
//
// # Ordering
//
// Passes are numbered with a seq INTEGER assigned on insert. Listing orders
// by seq DESC, id ASC COLLATE BINARY so results are stable regardless of the
// wall-clock created_at value.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: goals and outcomes reference their pass
package store
