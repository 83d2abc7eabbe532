// YouTube Data API v3 implementation of [Platform]
//
// Built on the official client with an OAuth token source; all calls carry the
// request context and map API failures through [ClassifyError].
package services

import (
	"context"
	"fmt"
	"time"

	"daylist/internal/models"
	"daylist/internal/shared"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	maxPageSize        = 50
	managedDescription = "Managed by daylist. Videos are added automatically each day; manual edits may be duplicated."
)

// YouTubeService implements [Platform] against the YouTube Data API v3.
type YouTubeService struct {
	yt        *youtube.Service
	channelID string
	privacy   string
}

// NewYouTubeService builds a YouTube client from an OAuth token source.
// Extra client options follow the token source, so tests can point the
// client at a local endpoint.
func NewYouTubeService(ctx context.Context, ts oauth2.TokenSource, channelID, privacy string, opts ...option.ClientOption) (*YouTubeService, error) {
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel ID is required", shared.ErrInvalidConfig)
	}
	if privacy == "" {
		privacy = "private"
	}

	clientOpts := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	yt, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}

	return &YouTubeService{yt: yt, channelID: channelID, privacy: privacy}, nil
}

// Name returns the platform name.
func (s *YouTubeService) Name() string {
	return "YouTube"
}

// ResolveOrCreatePlaylist finds a playlist by exact title among the
// authenticated account's playlists, creating it when absent.
func (s *YouTubeService) ResolveOrCreatePlaylist(ctx context.Context, title string) (*models.Playlist, error) {
	pageToken := ""
	for {
		call := s.yt.Playlists.List([]string{"id", "snippet", "contentDetails"}).
			Mine(true).
			MaxResults(maxPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", ClassifyError(err))
		}

		for _, item := range resp.Items {
			if item.Snippet != nil && item.Snippet.Title == title {
				pl := &models.Playlist{ID: item.Id, Title: item.Snippet.Title}
				if item.ContentDetails != nil {
					pl.ItemCount = int(item.ContentDetails.ItemCount)
				}
				return pl, nil
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	created, err := s.yt.Playlists.Insert([]string{"snippet", "status"}, &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       title,
			Description: managedDescription,
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: s.privacy},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", ClassifyError(err))
	}

	return &models.Playlist{ID: created.Id, Title: title}, nil
}

// RecentUploads walks the watched channel's uploads playlist until entries
// fall behind since, then backfills durations with a Videos.List batch.
//
// The uploads playlist costs 1 quota unit per page; Search.List would cost 100.
func (s *YouTubeService) RecentUploads(ctx context.Context, since time.Time) ([]models.Video, error) {
	uploadsID, err := s.uploadsPlaylistID(ctx)
	if err != nil {
		return nil, err
	}

	var videos []models.Video
	pageToken := ""

pages:
	for {
		call := s.yt.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(uploadsID).
			MaxResults(maxPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list uploads: %w", ClassifyError(err))
		}

		for _, item := range resp.Items {
			video, publishedAt, err := uploadEntry(item)
			if err != nil {
				return nil, err
			}
			// Uploads are newest first; once an entry predates the window
			// no later page can be inside it.
			if publishedAt.Before(since) {
				break pages
			}
			videos = append(videos, video)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if err := s.fillDurations(ctx, videos); err != nil {
		return nil, err
	}

	return videos, nil
}

// PlaylistItems returns the set of video IDs currently in the playlist.
func (s *YouTubeService) PlaylistItems(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	pageToken := ""

	for {
		call := s.yt.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(maxPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list playlist items: %w", ClassifyError(err))
		}

		for _, item := range resp.Items {
			if item.ContentDetails != nil {
				existing[item.ContentDetails.VideoId] = struct{}{}
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return existing, nil
}

// InsertItem appends a video to the end of the playlist.
func (s *YouTubeService) InsertItem(ctx context.Context, playlistID, videoID string) error {
	_, err := s.yt.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to insert playlist item: %w", ClassifyError(err))
	}
	return nil
}

// uploadsPlaylistID resolves the channel's uploads playlist.
func (s *YouTubeService) uploadsPlaylistID(ctx context.Context) (string, error) {
	resp, err := s.yt.Channels.List([]string{"contentDetails"}).
		Id(s.channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up channel: %w", ClassifyError(err))
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil {
		return "", fmt.Errorf("%w: %s", shared.ErrChannelNotFound, s.channelID)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// fillDurations batches Videos.List calls to populate ISO 8601 durations,
// which playlistItems responses do not carry.
func (s *YouTubeService) fillDurations(ctx context.Context, videos []models.Video) error {
	index := make(map[string]int, len(videos))
	ids := make([]string, len(videos))
	for i, v := range videos {
		index[v.ID] = i
		ids[i] = v.ID
	}

	for start := 0; start < len(ids); start += maxPageSize {
		end := start + maxPageSize
		if end > len(ids) {
			end = len(ids)
		}

		resp, err := s.yt.Videos.List([]string{"contentDetails"}).
			Id(ids[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to fetch video details: %w", ClassifyError(err))
		}

		for _, item := range resp.Items {
			if i, ok := index[item.Id]; ok && item.ContentDetails != nil {
				videos[i].Duration = item.ContentDetails.Duration
			}
		}
	}

	return nil
}

// uploadEntry converts a playlistItems entry into a [models.Video].
func uploadEntry(item *youtube.PlaylistItem) (models.Video, time.Time, error) {
	if item.Snippet == nil || item.ContentDetails == nil {
		return models.Video{}, time.Time{}, fmt.Errorf("%w: malformed uploads entry", shared.ErrAPIRequest)
	}

	// VideoPublishedAt is when the video went public; the snippet timestamp
	// is when it entered the uploads playlist.
	stamp := item.ContentDetails.VideoPublishedAt
	if stamp == "" {
		stamp = item.Snippet.PublishedAt
	}

	publishedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return models.Video{}, time.Time{}, fmt.Errorf("failed to parse published timestamp %q: %w", stamp, err)
	}

	return models.Video{
		ID:           item.ContentDetails.VideoId,
		Title:        item.Snippet.Title,
		ChannelTitle: item.Snippet.ChannelTitle,
		PublishedAt:  publishedAt,
	}, publishedAt, nil
}
