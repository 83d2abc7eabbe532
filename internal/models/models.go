// package models defines the data model for the daylist sync service
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models in the sync ledger.
// Implementations include PersistedPlaylist, PlaylistItem, and SyncRun.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Video represents a video selected from the watched channel's uploads.
// Immutable once fetched; PublishedAt drives window selection and ordering.
type Video struct {
	ID           string
	Title        string
	ChannelTitle string
	Duration     string // ISO 8601 duration as returned by the platform
	PublishedAt  time.Time
}

// Playlist represents the managed playlist on the platform.
type Playlist struct {
	ID        string
	Title     string
	ItemCount int
}

// base carries the lifecycle fields shared by all persistent entities.
type base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase(sequence int) base {
	now := time.Now()
	return base{sequence: sequence, createdAt: now, updatedAt: now}
}

func (b *base) ID() string                 { return b.id }
func (b *base) Sequence() int              { return b.sequence }
func (b *base) CreatedAt() time.Time       { return b.createdAt }
func (b *base) UpdatedAt() time.Time       { return b.updatedAt }
func (b *base) DeletedAt() *time.Time      { return b.deletedAt }
func (b *base) SetID(id string)            { b.id = id }
func (b *base) SetCreatedAt(t time.Time)   { b.createdAt = t }
func (b *base) SetUpdatedAt(t time.Time)   { b.updatedAt = t }
func (b *base) SetDeletedAt(t *time.Time)  { b.deletedAt = t }
func (b *base) SetSequence(sequence int)   { b.sequence = sequence }

// PersistedPlaylist is a managed playlist tracked in the local ledger.
type PersistedPlaylist struct {
	base
	remoteID  string
	title     string
	itemCount int
	privacy   string
}

// NewPersistedPlaylist creates a ledger entry for a managed playlist.
func NewPersistedPlaylist(sequence int, remoteID string, dto Playlist, privacy string) *PersistedPlaylist {
	if privacy == "" {
		privacy = "private"
	}
	return &PersistedPlaylist{
		base:      newBase(sequence),
		remoteID:  remoteID,
		title:     dto.Title,
		itemCount: dto.ItemCount,
		privacy:   privacy,
	}
}

func (p *PersistedPlaylist) RemoteID() string  { return p.remoteID }
func (p *PersistedPlaylist) Title() string     { return p.title }
func (p *PersistedPlaylist) ItemCount() int    { return p.itemCount }
func (p *PersistedPlaylist) Privacy() string   { return p.privacy }
func (p *PersistedPlaylist) SetItemCount(n int) { p.itemCount = n }

// Validate checks required playlist fields.
func (p *PersistedPlaylist) Validate() error {
	if p.remoteID == "" {
		return fmt.Errorf("playlist remote_id is required")
	}
	if p.title == "" {
		return fmt.Errorf("playlist title is required")
	}
	return nil
}

// PlaylistItem records a video inserted into a managed playlist.
// The (playlist, video) pair is unique for the lifetime of the playlist.
type PlaylistItem struct {
	base
	playlistID   string
	videoID      string
	title        string
	channelTitle string
	publishedAt  time.Time
	insertedAt   time.Time
}

// NewPlaylistItem creates a ledger entry for an inserted video.
func NewPlaylistItem(sequence int, playlistID string, video Video) *PlaylistItem {
	return &PlaylistItem{
		base:         newBase(sequence),
		playlistID:   playlistID,
		videoID:      video.ID,
		title:        video.Title,
		channelTitle: video.ChannelTitle,
		publishedAt:  video.PublishedAt,
		insertedAt:   time.Now(),
	}
}

func (i *PlaylistItem) PlaylistID() string        { return i.playlistID }
func (i *PlaylistItem) VideoID() string           { return i.videoID }
func (i *PlaylistItem) Title() string             { return i.title }
func (i *PlaylistItem) ChannelTitle() string      { return i.channelTitle }
func (i *PlaylistItem) PublishedAt() time.Time    { return i.publishedAt }
func (i *PlaylistItem) InsertedAt() time.Time     { return i.insertedAt }
func (i *PlaylistItem) SetInsertedAt(t time.Time) { i.insertedAt = t }
func (i *PlaylistItem) SetPublishedAt(t time.Time) { i.publishedAt = t }

// Validate checks required item fields.
func (i *PlaylistItem) Validate() error {
	if i.playlistID == "" {
		return fmt.Errorf("item playlist_id is required")
	}
	if i.videoID == "" {
		return fmt.Errorf("item video_id is required")
	}
	return nil
}

// Run status values recorded in the ledger.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// SyncRun records one scheduled run: its window, counts, and outcome.
type SyncRun struct {
	base
	playlistID   string
	windowStart  time.Time
	windowEnd    time.Time
	inserted     int
	skipped      int
	failed       int
	status       string
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
}

// NewSyncRun creates a running SyncRun for the given playlist and window.
func NewSyncRun(sequence int, playlistID string, windowStart, windowEnd time.Time) *SyncRun {
	return &SyncRun{
		base:        newBase(sequence),
		playlistID:  playlistID,
		windowStart: windowStart,
		windowEnd:   windowEnd,
		status:      RunStatusRunning,
		startedAt:   time.Now(),
	}
}

func (r *SyncRun) PlaylistID() string       { return r.playlistID }
func (r *SyncRun) WindowStart() time.Time   { return r.windowStart }
func (r *SyncRun) WindowEnd() time.Time     { return r.windowEnd }
func (r *SyncRun) Inserted() int            { return r.inserted }
func (r *SyncRun) Skipped() int             { return r.skipped }
func (r *SyncRun) Failed() int              { return r.failed }
func (r *SyncRun) Status() string           { return r.status }
func (r *SyncRun) ErrorMessage() string     { return r.errorMessage }
func (r *SyncRun) StartedAt() time.Time     { return r.startedAt }
func (r *SyncRun) CompletedAt() *time.Time  { return r.completedAt }
func (r *SyncRun) SetStartedAt(t time.Time) { r.startedAt = t }

// Complete finalizes the run with result counts. Status is completed when no
// items failed, partial otherwise.
func (r *SyncRun) Complete(inserted, skipped, failed int) {
	now := time.Now()
	r.inserted = inserted
	r.skipped = skipped
	r.failed = failed
	r.completedAt = &now
	if failed > 0 {
		r.status = RunStatusPartial
	} else {
		r.status = RunStatusCompleted
	}
}

// Fail marks the run as fatally failed with the given message.
func (r *SyncRun) Fail(message string) {
	now := time.Now()
	r.status = RunStatusFailed
	r.errorMessage = message
	r.completedAt = &now
}

// SetCounts restores result counts when loading from the ledger.
func (r *SyncRun) SetCounts(inserted, skipped, failed int) {
	r.inserted = inserted
	r.skipped = skipped
	r.failed = failed
}

// SetStatus restores run status when loading from the ledger.
func (r *SyncRun) SetStatus(status, errorMessage string, completedAt *time.Time) {
	r.status = status
	r.errorMessage = errorMessage
	r.completedAt = completedAt
}

// Validate checks required run fields.
func (r *SyncRun) Validate() error {
	if r.playlistID == "" {
		return fmt.Errorf("run playlist_id is required")
	}
	if r.windowEnd.Before(r.windowStart) {
		return fmt.Errorf("run window end precedes start")
	}
	switch r.status {
	case RunStatusRunning, RunStatusCompleted, RunStatusPartial, RunStatusFailed:
	default:
		return fmt.Errorf("invalid run status: %s", r.status)
	}
	return nil
}
