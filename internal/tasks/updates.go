package tasks

import (
	"fmt"

	"daylist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ResolvePlaylist Phase = iota
	CreatePlaylist
	SelectVideos
	FetchExisting
	InsertItems
	RecordRun
)

func (p Phase) String() string {
	switch p {
	case ResolvePlaylist:
		return "resolve_playlist"
	case CreatePlaylist:
		return "create_playlist"
	case SelectVideos:
		return "select_videos"
	case FetchExisting:
		return "fetch_existing"
	case InsertItems:
		return "insert_items"
	case RecordRun:
		return "record_run"
	default:
		return ""
	}
}

func resolvePlaylistUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving playlist %q...", title),
	}
}

func selectVideosUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectVideos,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %d videos in window", count),
		Data:    count,
	}
}

func fetchExistingUpdate(playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchExisting,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching current contents of %q...", playlist.Title),
		Data:    playlist,
	}
}

func insertItemUpdate(step, total int, video *models.Video) ProgressUpdate {
	message := "Inserting videos..."
	if video != nil {
		message = fmt.Sprintf("Inserting %q (%d/%d)...", video.Title, step, total)
	}
	return ProgressUpdate{
		Phase:   InsertItems,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    video,
	}
}

func recordRunUpdate(result *SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Run complete: %d inserted, %d skipped, %d failed", result.Inserted, result.Skipped, result.Failed),
		Data:    result,
	}
}
