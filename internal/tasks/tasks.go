package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"daylist/internal/models"
	"daylist/internal/retry"
	"daylist/internal/services"
	"daylist/internal/shared"

	"golang.org/x/time/rate"
)

// Window is the bounded time range used to select candidate videos for a run.
// Start is inclusive, End exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowEnding returns the window of the given length ending at end.
func WindowEnding(end time.Time, length time.Duration) Window {
	return Window{Start: end.Add(-length), End: end}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ItemFailure records a per-item insert failure that did not abort the batch.
type ItemFailure struct {
	Video models.Video
	Err   error
}

// SyncResult contains the counts for one sync batch.
type SyncResult struct {
	Inserted       int            // Videos newly added to the playlist
	Skipped        int            // Videos already present (remote or ledger)
	Failed         int            // Videos whose insert failed after retries
	InsertedVideos []models.Video // The videos behind the Inserted count, in insert order
	Failures       []ItemFailure  // Detail for each failed insert
	Warnings       []string       // Non-fatal bookkeeping problems (ledger writes)
}

// ItemLedger is the local record of videos already inserted into a playlist.
// It backs cross-run dedup even when the remote listing is truncated.
type ItemLedger interface {
	Contains(playlistID, videoID string) (bool, error)
	Record(playlistID string, video models.Video) error
}

// SyncEngine orchestrates one scheduled run against a [services.Platform].
type SyncEngine struct {
	platform services.Platform
	ledger   ItemLedger
	limiter  *rate.Limiter
	retryCfg retry.Config
}

// EngineOpts contains configuration options for creating a SyncEngine.
type EngineOpts struct {
	Platform  services.Platform
	Ledger    ItemLedger    // Optional; nil disables cross-run dedup
	RateLimit float64       // Requests per second (default 5)
	Retry     *retry.Config // Per-item retry bounds (default retry.DefaultConfig)
}

// NewSyncEngine creates a SyncEngine with the provided options.
func NewSyncEngine(opts EngineOpts) *SyncEngine {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	cfg := retry.DefaultConfig()
	if opts.Retry != nil {
		cfg = *opts.Retry
	}

	return &SyncEngine{
		platform: opts.Platform,
		ledger:   opts.Ledger,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		retryCfg: cfg,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ResolveOrCreatePlaylist resolves the managed playlist by title, creating it
// when absent.
func (e *SyncEngine) ResolveOrCreatePlaylist(ctx context.Context, progress chan<- ProgressUpdate, title string) (*models.Playlist, error) {
	if e.platform == nil {
		return nil, fmt.Errorf("%w: platform not initialized", shared.ErrServiceUnavailable)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: playlist title is required", shared.ErrInvalidArgument)
	}

	e.sendProgress(progress, resolvePlaylistUpdate(title))

	playlist, err := e.platform.ResolveOrCreatePlaylist(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve playlist %q: %w", title, err)
	}

	return playlist, nil
}

// SelectVideosForWindow returns the watched channel's videos published inside
// the window, ordered by published time ascending.
func (e *SyncEngine) SelectVideosForWindow(ctx context.Context, progress chan<- ProgressUpdate, window Window) ([]models.Video, error) {
	if e.platform == nil {
		return nil, fmt.Errorf("%w: platform not initialized", shared.ErrServiceUnavailable)
	}

	uploads, err := e.platform.RecentUploads(ctx, window.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent uploads: %w", err)
	}

	var videos []models.Video
	for _, video := range uploads {
		if window.Contains(video.PublishedAt) {
			videos = append(videos, video)
		}
	}

	sort.Slice(videos, func(i, j int) bool {
		return videos[i].PublishedAt.Before(videos[j].PublishedAt)
	})

	e.sendProgress(progress, selectVideosUpdate(len(videos)))

	return videos, nil
}

// Sync applies an insert-only diff of videos against the playlist.
//
// Videos already present remotely or in the local ledger are skipped.
// Transient insert failures are retried with bounded backoff and, when
// exhausted, recorded without aborting the batch. Authorization and quota
// failures abort immediately with the partial result.
func (e *SyncEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, playlist *models.Playlist, videos []models.Video) (*SyncResult, error) {
	if e.platform == nil {
		return nil, fmt.Errorf("%w: platform not initialized", shared.ErrServiceUnavailable)
	}
	if playlist == nil || playlist.ID == "" {
		return nil, fmt.Errorf("%w: playlist is required", shared.ErrInvalidArgument)
	}

	result := &SyncResult{}

	e.sendProgress(progress, fetchExistingUpdate(playlist))

	existing, err := e.platform.PlaylistItems(ctx, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist contents: %w", err)
	}

	total := len(videos)
	for i, video := range videos {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if _, ok := existing[video.ID]; ok {
			result.Skipped++
			continue
		}

		if e.ledger != nil {
			recorded, err := e.ledger.Contains(playlist.ID, video.ID)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("ledger lookup failed for %s: %v", video.ID, err))
			} else if recorded {
				result.Skipped++
				continue
			}
		}

		e.sendProgress(progress, insertItemUpdate(i+1, total, &video))

		if err := e.limiter.Wait(ctx); err != nil {
			return result, err
		}

		err := retry.Do(ctx, e.retryCfg, retry.IsRetryable, func(ctx context.Context) error {
			return e.platform.InsertItem(ctx, playlist.ID, video.ID)
		})
		if err != nil {
			switch {
			case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrRefreshFailed):
				return result, fmt.Errorf("aborting sync: %w", err)
			case errors.Is(err, shared.ErrQuotaExceeded):
				return result, fmt.Errorf("aborting sync: %w", err)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return result, err
			default:
				result.Failed++
				result.Failures = append(result.Failures, ItemFailure{Video: video, Err: err})
				continue
			}
		}

		result.Inserted++
		result.InsertedVideos = append(result.InsertedVideos, video)
		existing[video.ID] = struct{}{}

		if e.ledger != nil {
			if err := e.ledger.Record(playlist.ID, video); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("ledger record failed for %s: %v", video.ID, err))
			}
		}
	}

	e.sendProgress(progress, recordRunUpdate(result))

	return result, nil
}
