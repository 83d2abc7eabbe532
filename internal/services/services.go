package services

import (
	"context"
	"time"

	"daylist/internal/models"
)

// Platform defines the capability set the sync engine needs from a
// video-hosting platform.
type Platform interface {
	// ResolveOrCreatePlaylist looks up a playlist by title among the
	// authenticated account's playlists, creating it with fixed metadata
	// when absent.
	ResolveOrCreatePlaylist(ctx context.Context, title string) (*models.Playlist, error)

	// RecentUploads returns the watched channel's uploads published at or
	// after since, newest first as delivered by the platform.
	RecentUploads(ctx context.Context, since time.Time) ([]models.Video, error)

	// PlaylistItems returns the video IDs currently in the playlist.
	PlaylistItems(ctx context.Context, playlistID string) (map[string]struct{}, error)

	// InsertItem appends a video to the playlist.
	InsertItem(ctx context.Context, playlistID, videoID string) error

	// Name returns the platform name (e.g., "YouTube")
	Name() string
}
