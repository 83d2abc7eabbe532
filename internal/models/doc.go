// Package models defines domain entities and persistence interfaces for the daylist sync ledger.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs mirroring platform data
//   - [Video] : Video metadata selected from a channel's uploads
//   - [Playlist] : Basic playlist metadata for the managed playlist
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [PersistedPlaylist] : Managed playlists known to the local ledger
//   - [PlaylistItem] : Videos inserted into a managed playlist (dedup ledger)
//   - [SyncRun] : One scheduled run with its window and result counts
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
