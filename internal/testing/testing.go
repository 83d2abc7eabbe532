// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"daylist/internal/models"
	"daylist/internal/shared"
)

// FakePlatform is an in-memory test double for [services.Platform].
//
// Playlists and their contents live in maps; per-call error injection drives
// failure-path tests. InsertErrs values are consumed one per attempt so a
// video can fail transiently and then succeed.
type FakePlatform struct {
	PlatformName string
	Playlists    map[string]*models.Playlist  // keyed by playlist ID
	Items        map[string]map[string]struct{} // playlist ID -> video ID set
	Uploads      []models.Video

	ResolveErr error
	UploadsErr error
	ItemsErr   error
	InsertErrs map[string][]error // video ID -> errors returned per attempt

	CreatedTitles []string // titles passed to create when no playlist matched
	InsertCalls   int      // total InsertItem attempts
}

// NewFakePlatform creates an empty fake.
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		PlatformName: "fake",
		Playlists:    make(map[string]*models.Playlist),
		Items:        make(map[string]map[string]struct{}),
		InsertErrs:   make(map[string][]error),
	}
}

// AddPlaylist seeds a playlist with the given existing video IDs.
func (f *FakePlatform) AddPlaylist(id, title string, videoIDs ...string) *models.Playlist {
	pl := &models.Playlist{ID: id, Title: title, ItemCount: len(videoIDs)}
	f.Playlists[id] = pl
	set := make(map[string]struct{}, len(videoIDs))
	for _, vid := range videoIDs {
		set[vid] = struct{}{}
	}
	f.Items[id] = set
	return pl
}

// FailInsert queues errors for a video's insert attempts, in order.
func (f *FakePlatform) FailInsert(videoID string, errs ...error) {
	f.InsertErrs[videoID] = append(f.InsertErrs[videoID], errs...)
}

func (f *FakePlatform) Name() string {
	if f.PlatformName == "" {
		return "fake"
	}
	return f.PlatformName
}

func (f *FakePlatform) ResolveOrCreatePlaylist(ctx context.Context, title string) (*models.Playlist, error) {
	if f.ResolveErr != nil {
		return nil, f.ResolveErr
	}
	for _, pl := range f.Playlists {
		if pl.Title == title {
			return pl, nil
		}
	}
	f.CreatedTitles = append(f.CreatedTitles, title)
	id := fmt.Sprintf("created-%d", len(f.CreatedTitles))
	return f.AddPlaylist(id, title), nil
}

func (f *FakePlatform) RecentUploads(ctx context.Context, since time.Time) ([]models.Video, error) {
	if f.UploadsErr != nil {
		return nil, f.UploadsErr
	}
	var recent []models.Video
	for _, v := range f.Uploads {
		if !v.PublishedAt.Before(since) {
			recent = append(recent, v)
		}
	}
	return recent, nil
}

func (f *FakePlatform) PlaylistItems(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	if f.ItemsErr != nil {
		return nil, f.ItemsErr
	}
	set, ok := f.Items[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	out := make(map[string]struct{}, len(set))
	for id := range set {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *FakePlatform) InsertItem(ctx context.Context, playlistID, videoID string) error {
	f.InsertCalls++
	if queue := f.InsertErrs[videoID]; len(queue) > 0 {
		err := queue[0]
		f.InsertErrs[videoID] = queue[1:]
		return err
	}
	set, ok := f.Items[playlistID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	set[videoID] = struct{}{}
	if pl := f.Playlists[playlistID]; pl != nil {
		pl.ItemCount = len(set)
	}
	return nil
}

// MemoryLedger is an in-memory tasks.ItemLedger.
type MemoryLedger struct {
	Recorded    map[string]map[string]models.Video // playlist ID -> video ID -> video
	ContainsErr error
	RecordErr   error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{Recorded: make(map[string]map[string]models.Video)}
}

func (l *MemoryLedger) Contains(playlistID, videoID string) (bool, error) {
	if l.ContainsErr != nil {
		return false, l.ContainsErr
	}
	_, ok := l.Recorded[playlistID][videoID]
	return ok, nil
}

func (l *MemoryLedger) Record(playlistID string, video models.Video) error {
	if l.RecordErr != nil {
		return l.RecordErr
	}
	if l.Recorded[playlistID] == nil {
		l.Recorded[playlistID] = make(map[string]models.Video)
	}
	l.Recorded[playlistID][video.ID] = video
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
