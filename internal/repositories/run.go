package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"daylist/internal/models"
	"daylist/internal/shared"
)

// RunRepository implements models.Repository[*models.SyncRun] for the run
// history ledger.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (id, sequence, playlist_id, window_start, window_end, inserted, skipped, failed, status, error_message, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errorMessage any = run.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	var completedAt any
	if run.CompletedAt() != nil {
		completedAt = *run.CompletedAt()
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.PlaylistID(),
		run.WindowStart(),
		run.WindowEnd(),
		run.Inserted(),
		run.Skipped(),
		run.Failed(),
		run.Status(),
		errorMessage,
		run.StartedAt(),
		completedAt,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.SyncRun, error) {
	query := runSelect + " WHERE id = ? AND deleted_at IS NULL"

	row := r.db.QueryRow(query, id)
	run, err := scanRunRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, err
}

// Latest retrieves the most recent run, scoped to a playlist when playlistID
// is non-empty. Returns nil when no runs exist.
func (r *RunRepository) Latest(playlistID string) (*models.SyncRun, error) {
	query := runSelect + " WHERE deleted_at IS NULL"
	args := []any{}
	if playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}
	query += " ORDER BY sequence DESC LIMIT 1"

	row := r.db.QueryRow(query, args...)
	run, err := scanRunRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// Update modifies an existing run in the database
func (r *RunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	var errorMessage any = run.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	var completedAt any
	if run.CompletedAt() != nil {
		completedAt = *run.CompletedAt()
	}

	query := `
		UPDATE runs
		SET inserted = ?, skipped = ?, failed = ?, status = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.Inserted(),
		run.Skipped(),
		run.Failed(),
		run.Status(),
		errorMessage,
		completedAt,
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	now := time.Now()

	result, err := r.db.Exec("UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", now, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all runs matching the given criteria, excluding soft-deleted runs
func (r *RunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := runSelect + " WHERE deleted_at IS NULL"
	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRunRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

const runSelect = `
	SELECT id, sequence, playlist_id, window_start, window_end, inserted, skipped, failed, status, error_message, started_at, completed_at, created_at, updated_at, deleted_at
	FROM runs`

// scanRunRow scans one row using the provided Scan function.
func scanRunRow(scan func(dest ...any) error) (*models.SyncRun, error) {
	var (
		id           string
		sequence     int
		playlistID   string
		windowStart  time.Time
		windowEnd    time.Time
		inserted     int
		skipped      int
		failed       int
		status       string
		errorMessage sql.NullString
		startedAt    time.Time
		completedAt  sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := scan(&id, &sequence, &playlistID, &windowStart, &windowEnd, &inserted, &skipped, &failed, &status, &errorMessage, &startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewSyncRun(sequence, playlistID, windowStart, windowEnd)
	run.SetID(id)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	run.SetStartedAt(startedAt)
	run.SetCounts(inserted, skipped, failed)

	var completed *time.Time
	if completedAt.Valid {
		completed = &completedAt.Time
	}
	run.SetStatus(status, errorMessage.String, completed)

	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
