package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"daylist/internal/formatter"
	"daylist/internal/models"
	"daylist/internal/repositories"
	"daylist/internal/retry"
	"daylist/internal/services"
	"daylist/internal/shared"
	"daylist/internal/tasks"

	"github.com/urfave/cli/v3"
)

// SyncRun executes one scheduled run: resolve the playlist, select videos
// inside the window, and insert the ones not already present.
//
// Per-item failures leave a partial result and still exit zero; auth and
// quota errors abort the run and surface as a non-zero exit.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)
	if err := r.config.Validate(); err != nil {
		return err
	}

	title := r.config.YouTube.PlaylistTitle
	if flagTitle := cmd.String("playlist"); flagTitle != "" {
		title = flagTitle
	}

	windowHours := r.config.YouTube.WindowHours
	if flagWindow := cmd.Int("window"); flagWindow > 0 {
		windowHours = int(flagWindow)
	}

	platform, err := r.resolvePlatform(ctx)
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	playlistRepo := repositories.NewPlaylistRepository(db)
	itemRepo := repositories.NewItemRepository(db)
	runRepo := repositories.NewRunRepository(db)

	retryCfg := retry.DefaultConfig()
	if r.config.Sync.MaxAttempts > 0 {
		retryCfg.MaxAttempts = r.config.Sync.MaxAttempts
	}

	engine := tasks.NewSyncEngine(tasks.EngineOpts{
		Platform:  platform,
		Ledger:    repositories.NewItemLedgerAdapter(itemRepo),
		RateLimit: r.config.Sync.RateLimit,
		Retry:     &retryCfg,
	})

	r.logger.Info("starting sync", "playlist", title, "window_hours", windowHours)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.ResolvePlaylist, tasks.CreatePlaylist:
				r.writePlain("📋 %s\n", update.Message)
			case tasks.SelectVideos:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.FetchExisting:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.InsertItems:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	playlist, err := engine.ResolveOrCreatePlaylist(ctx, progressCh, title)
	if err != nil {
		close(progressCh)
		return err
	}

	persisted, err := r.rememberPlaylist(db, playlistRepo, playlist)
	if err != nil {
		close(progressCh)
		return err
	}

	window := tasks.WindowEnding(r.now().UTC(), time.Duration(windowHours)*time.Hour)
	videos, err := engine.SelectVideosForWindow(ctx, progressCh, window)
	if err != nil {
		close(progressCh)
		return err
	}

	if cmd.Bool("dry-run") {
		close(progressCh)
		return r.reportDryRun(ctx, platform, playlist, videos)
	}

	run := models.NewSyncRun(0, persisted.ID(), window.Start, window.End)
	run.SetStartedAt(r.now().UTC())
	if err := runRepo.Create(run); err != nil {
		close(progressCh)
		return err
	}

	result, syncErr := engine.Sync(ctx, progressCh, playlist, videos)
	close(progressCh)

	if syncErr != nil {
		if result != nil {
			run.SetCounts(result.Inserted, result.Skipped, result.Failed)
		}
		run.Fail(syncErr.Error())
		if err := runRepo.Update(run); err != nil {
			r.logger.Warnf("failed to record run: %v", err)
		}
		return syncErr
	}

	run.Complete(result.Inserted, result.Skipped, result.Failed)
	if err := runRepo.Update(run); err != nil {
		r.logger.Warnf("failed to record run: %v", err)
	}

	for _, warning := range result.Warnings {
		r.logger.Warn(warning)
	}

	if err := r.writeReport(cmd, title, result); err != nil {
		r.logger.Warnf("failed to write report: %v", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"playlist": title,
			"inserted": result.Inserted,
			"skipped":  result.Skipped,
			"failed":   result.Failed,
			"status":   run.Status(),
		}, cmd.Bool("pretty"))
	}

	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("Sync Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Playlist: %s\n", title)
	r.writePlain("Inserted: %d  Skipped: %d  Failed: %d\n", result.Inserted, result.Skipped, result.Failed)

	if result.Failed > 0 {
		r.writePlain("\nFailed to insert %d videos:\n", result.Failed)
		for _, failure := range result.Failures {
			r.writePlain("  - %s (%s): %v\n", failure.Video.Title, failure.Video.ID, failure.Err)
		}
	}

	return nil
}

// SyncStatus prints the most recent run recorded in the ledger.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runRepo := repositories.NewRunRepository(db)
	run, err := runRepo.Latest("")
	if err != nil {
		return err
	}
	if run == nil {
		return r.writePlain("No sync runs recorded yet.\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"id":           run.ID(),
			"playlist_id":  run.PlaylistID(),
			"window_start": shared.FormatTimestamp(run.WindowStart()),
			"window_end":   shared.FormatTimestamp(run.WindowEnd()),
			"inserted":     run.Inserted(),
			"skipped":      run.Skipped(),
			"failed":       run.Failed(),
			"status":       run.Status(),
			"error":        run.ErrorMessage(),
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Last run: %s\n", run.ID())
	r.writePlain("Window: %s → %s\n", shared.FormatTimestamp(run.WindowStart()), shared.FormatTimestamp(run.WindowEnd()))
	r.writePlain("Status: %s\n", run.Status())
	r.writePlain("Inserted: %d  Skipped: %d  Failed: %d\n", run.Inserted(), run.Skipped(), run.Failed())
	if run.ErrorMessage() != "" {
		r.writePlain("Error: %s\n", run.ErrorMessage())
	}

	return nil
}

// resolvePlatform returns the injected platform when present, otherwise
// builds a YouTube client from fresh credentials.
func (r *Runner) resolvePlatform(ctx context.Context) (services.Platform, error) {
	if r.platform != nil {
		return r.platform, nil
	}

	manager, err := r.authManager()
	if err != nil {
		return nil, err
	}

	source, _, err := manager.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	return services.NewYouTubeService(ctx, source, r.config.YouTube.ChannelID, r.config.YouTube.Privacy)
}

func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// rememberPlaylist makes sure the resolved playlist has a ledger row, keyed
// by its remote ID.
func (r *Runner) rememberPlaylist(db *sql.DB, repo *repositories.PlaylistRepository, playlist *models.Playlist) (*models.PersistedPlaylist, error) {
	existing, err := repo.GetByRemoteID(playlist.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.ItemCount() != playlist.ItemCount {
			existing.SetItemCount(playlist.ItemCount)
			if err := repo.Update(existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	persisted := models.NewPersistedPlaylist(0, playlist.ID, *playlist, r.config.YouTube.Privacy)
	if err := repo.Create(persisted); err != nil {
		return nil, err
	}

	return persisted, nil
}

// reportDryRun prints the insert-only diff without applying it.
func (r *Runner) reportDryRun(ctx context.Context, platform services.Platform, playlist *models.Playlist, videos []models.Video) error {
	existing, err := platform.PlaylistItems(ctx, playlist.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist contents: %w", err)
	}

	var toInsert, skipped int
	r.writePlain("\nDry run: no changes applied.\n")
	for _, video := range videos {
		if _, ok := existing[video.ID]; ok {
			skipped++
			continue
		}
		toInsert++
		r.writePlain("  + %s (%s)\n", video.Title, video.ID)
	}

	r.writePlain("Would insert: %d  Would skip: %d\n", toInsert, skipped)
	return nil
}

// writeReport exports the run summary when a report format is configured or
// requested via the --report flag.
func (r *Runner) writeReport(cmd *cli.Command, title string, result *tasks.SyncResult) error {
	format := cmd.String("report")
	if format == "" {
		format = r.config.Sync.ReportFormat
	}
	if format == "" || r.config.Sync.ReportDir == "" {
		return nil
	}

	report := &formatter.RunReport{
		PlaylistTitle: title,
		GeneratedAt:   r.now().UTC(),
		Inserted:      result.InsertedVideos,
		Skipped:       result.Skipped,
		Failed:        result.Failed,
	}

	data, err := formatter.Export(report, format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.config.Sync.ReportDir, 0755); err != nil {
		return err
	}

	extensions := map[string]string{"csv": "csv", "markdown": "md", "text": "txt"}
	ext, ok := extensions[format]
	if !ok {
		ext = format
	}

	path := filepath.Join(r.config.Sync.ReportDir, fmt.Sprintf("sync_%s.%s", r.now().UTC().Format("2006-01-02"), ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	r.logger.Info("report written", "path", path)
	return nil
}
