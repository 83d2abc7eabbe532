package main

import (
	"context"
	"errors"

	"daylist/internal/repositories"
	"daylist/internal/shared"

	"github.com/urfave/cli/v3"
)

// CachePlaylists lists playlists recorded in the local ledger.
func (r *Runner) CachePlaylists(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	playlists, err := repositories.NewPlaylistRepository(db).List(map[string]any{})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(playlists))
		for _, playlist := range playlists {
			rows = append(rows, map[string]any{
				"id":         playlist.ID(),
				"remote_id":  playlist.RemoteID(),
				"title":      playlist.Title(),
				"item_count": playlist.ItemCount(),
				"privacy":    playlist.Privacy(),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists recorded yet.\n")
	}

	for _, playlist := range playlists {
		r.writePlain("%s  %s (%d items, %s)\n", playlist.ID(), playlist.Title(), playlist.ItemCount(), playlist.Privacy())
	}

	return nil
}

// CacheItems lists ledger entries for a playlist. The --playlist flag
// accepts either the ledger ID shown by `cache playlists` or the
// platform-side playlist ID.
func (r *Runner) CacheItems(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	// Item rows are keyed by the remote playlist ID, so a ledger ID has
	// to be resolved first.
	playlistID := cmd.String("playlist")
	persisted, err := repositories.NewPlaylistRepository(db).Get(playlistID)
	if err == nil {
		playlistID = persisted.RemoteID()
	} else if !errors.Is(err, shared.ErrPlaylistNotFound) {
		return err
	}

	items, err := repositories.NewItemRepository(db).List(map[string]any{
		"playlist_id": playlistID,
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, map[string]any{
				"video_id":     item.VideoID(),
				"title":        item.Title(),
				"channel":      item.ChannelTitle(),
				"published_at": shared.FormatTimestamp(item.PublishedAt()),
				"inserted_at":  shared.FormatTimestamp(item.InsertedAt()),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(items) == 0 {
		return r.writePlain("No items recorded for this playlist.\n")
	}

	for _, item := range items {
		r.writePlain("%s  %s by %s (inserted %s)\n",
			item.VideoID(), item.Title(), item.ChannelTitle(), shared.FormatTimestamp(item.InsertedAt()))
	}

	return nil
}

// CacheRuns lists recorded sync runs, newest first.
func (r *Runner) CacheRuns(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(map[string]any{})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(runs))
		for _, run := range runs {
			rows = append(rows, map[string]any{
				"id":           run.ID(),
				"playlist_id":  run.PlaylistID(),
				"window_start": shared.FormatTimestamp(run.WindowStart()),
				"window_end":   shared.FormatTimestamp(run.WindowEnd()),
				"inserted":     run.Inserted(),
				"skipped":      run.Skipped(),
				"failed":       run.Failed(),
				"status":       run.Status(),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		return r.writePlain("No sync runs recorded yet.\n")
	}

	for _, run := range runs {
		r.writePlain("%s  %s  inserted=%d skipped=%d failed=%d  %s\n",
			run.ID(), run.Status(), run.Inserted(), run.Skipped(), run.Failed(),
			shared.FormatTimestamp(run.StartedAt()))
	}

	return nil
}
