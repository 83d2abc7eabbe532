package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"daylist/internal/models"
	"daylist/internal/shared"
)

// ItemRepository implements models.Repository[*models.PlaylistItem] for the
// inserted-video ledger. The UNIQUE(playlist_id, video_id) constraint is the
// dedup invariant: no video enters a playlist's ledger twice.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new ItemRepository with the given database connection
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new item into the database with generated ID and sequence
func (r *ItemRepository) Create(item *models.PlaylistItem) error {
	sequence, err := NextSequence(r.db, "playlist_items")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	item.SetID(id)
	item.SetSequence(sequence)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlist_items (id, sequence, playlist_id, video_id, title, channel_title, published_at, inserted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		item.PlaylistID(),
		item.VideoID(),
		item.Title(),
		item.ChannelTitle(),
		item.PublishedAt(),
		item.InsertedAt(),
		item.CreatedAt(),
		item.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// Get retrieves an item by ID, excluding soft-deleted items
func (r *ItemRepository) Get(id string) (*models.PlaylistItem, error) {
	query := `
		SELECT id, sequence, playlist_id, video_id, title, channel_title, published_at, inserted_at, created_at, updated_at, deleted_at
		FROM playlist_items
		WHERE id = ? AND deleted_at IS NULL
	`

	row := r.db.QueryRow(query, id)
	item, err := scanItemRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item not found: %s", id)
	}
	return item, err
}

// Exists reports whether a (playlist, video) pair is already in the ledger.
func (r *ItemRepository) Exists(playlistID, videoID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM playlist_items WHERE playlist_id = ? AND video_id = ? AND deleted_at IS NULL)",
		playlistID, videoID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check item existence: %w", err)
	}
	return exists, nil
}

// Update modifies an existing item in the database
func (r *ItemRepository) Update(item *models.PlaylistItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	item.SetUpdatedAt(now)

	query := `
		UPDATE playlist_items
		SET title = ?, channel_title = ?, published_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, item.Title(), item.ChannelTitle(), item.PublishedAt(), now, item.ID())
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("item not found or already deleted: %s", item.ID())
	}

	return nil
}

// Delete soft-deletes an item by ID
func (r *ItemRepository) Delete(id string) error {
	now := time.Now()

	result, err := r.db.Exec("UPDATE playlist_items SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", now, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("item not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all items matching the given criteria, excluding soft-deleted items
func (r *ItemRepository) List(criteria map[string]any) ([]*models.PlaylistItem, error) {
	query := `
		SELECT id, sequence, playlist_id, video_id, title, channel_title, published_at, inserted_at, created_at, updated_at, deleted_at
		FROM playlist_items
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*models.PlaylistItem
	for rows.Next() {
		item, err := scanItemRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// scanItemRow scans one row using the provided Scan function.
func scanItemRow(scan func(dest ...any) error) (*models.PlaylistItem, error) {
	var (
		id           string
		sequence     int
		playlistID   string
		videoID      string
		title        string
		channelTitle string
		publishedAt  sql.NullTime
		insertedAt   time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := scan(&id, &sequence, &playlistID, &videoID, &title, &channelTitle, &publishedAt, &insertedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	video := models.Video{ID: videoID, Title: title, ChannelTitle: channelTitle}
	item := models.NewPlaylistItem(sequence, playlistID, video)
	item.SetID(id)
	item.SetCreatedAt(createdAt)
	item.SetUpdatedAt(updatedAt)
	item.SetInsertedAt(insertedAt)
	if publishedAt.Valid {
		item.SetPublishedAt(publishedAt.Time)
	}
	if deletedAt.Valid {
		item.SetDeletedAt(&deletedAt.Time)
	}

	return item, nil
}

// ItemLedgerAdapter implements tasks.ItemLedger using ItemRepository.
//
// Duplicate (playlist, video) pairs are silently ignored via the UNIQUE
// constraint, so recording an already-known insert is not an error.
type ItemLedgerAdapter struct {
	repo *ItemRepository
}

// NewItemLedgerAdapter creates a new ItemLedgerAdapter with the given repository
func NewItemLedgerAdapter(repo *ItemRepository) *ItemLedgerAdapter {
	return &ItemLedgerAdapter{repo: repo}
}

// Contains reports whether the video is already recorded for the playlist.
func (a *ItemLedgerAdapter) Contains(playlistID, videoID string) (bool, error) {
	return a.repo.Exists(playlistID, videoID)
}

// Record stores an inserted video. Returns nil when the pair already exists.
func (a *ItemLedgerAdapter) Record(playlistID string, video models.Video) error {
	item := models.NewPlaylistItem(0, playlistID, video)

	if err := a.repo.Create(item); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to record item: %w", err)
	}

	return nil
}
