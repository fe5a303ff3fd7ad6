package tasks

import (
	"fmt"

	"github.com/desertthunder/music-playlists/internal/models"
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
	Login Phase = iota
	FetchSource
	SearchTracks
	UpdateDetails
	UpdateTracks
	Finished
)

func (p Phase) String() string {
	switch p {
	case Login:
		return "login"
	case FetchSource:
		return "fetch_source"
	case SearchTracks:
		return "search_tracks"
	case UpdateDetails:
		return "update_details"
	case UpdateTracks:
		return "update_tracks"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func loginUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Login,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Logging in to %s...", name),
	}
}

func fetchSourceUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching source track list (%s)...", step, total, name),
	}
}

func searchTracksUpdate(step, total int, service string, tr *models.Track) ProgressUpdate {
	if tr == nil {
		return ProgressUpdate{
			Phase:   SearchTracks,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("Searching for tracks on %s...", service),
		}
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, tr),
		Data:    tr,
	}
}

func updateDetailsUpdate(service, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpdateDetails,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Updating %s playlist details (%s)...", service, playlistID),
	}
}

func updateTracksUpdate(service, playlistID string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpdateTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Updating %s playlist tracks (%s, %d tracks)...", service, playlistID, count),
	}
}

func finishedUpdate(step, total int, result *UpdateResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s → %s: found %d of %d", step, total, result.Source, result.Service, result.Found, result.Total)
	if result.Err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s → %s: %v", step, total, result.Source, result.Service, result.Err)
	}
	return ProgressUpdate{
		Phase:   Finished,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    result,
	}
}
