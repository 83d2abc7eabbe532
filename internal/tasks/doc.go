// Package tasks orchestrates scheduled playlist syncs with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] exposes three operations, run in order by the CLI:
//
//  1. [SyncEngine.ResolveOrCreatePlaylist] : Find or create the target playlist
//     - Lists the channel's own playlists and matches on exact title
//     - Creates the playlist with the configured privacy when absent
//     - Resolution is idempotent: repeated runs reuse the same playlist
//
//  2. [SyncEngine.SelectVideosForWindow] : Pick the run's candidate videos
//     - Fetches uploads published inside the [Window]
//     - Returns them ordered by publish time, oldest first
//
//  3. [SyncEngine.Sync] : Apply the insert-only diff
//     - Skips videos already in the playlist or in the local ledger
//     - Inserts the rest with rate limiting and bounded retries
//     - Returns [SyncResult] counts: inserted, skipped, failed
//
// # Failure Semantics
//
// Transient API errors are retried with exponential backoff. A video that
// still fails after retries increments Failed and the batch continues.
// Credential and quota errors abort the batch immediately and carry the
// partial [SyncResult] out with the error.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Ledger
//
// The optional [ItemLedger] interface records inserted videos locally so
// later runs can skip them even when the remote listing is truncated.
package tasks
