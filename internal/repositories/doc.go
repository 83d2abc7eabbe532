// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [PlaylistRepository] : Managed playlist ledger with remote-ID lookups
//   - [ItemRepository] : Inserted-video ledger enforcing the one-insert-per-video invariant
//   - [RunRepository] : Run history with status tracking and latest-run lookups
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// [ItemLedgerAdapter] exposes the item ledger to the sync engine as
// tasks.ItemLedger, treating UNIQUE constraint violations as already-present.
package repositories
