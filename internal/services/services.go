// Service abstraction shared by the streaming providers.
package services

import (
	"context"

	"github.com/desertthunder/music-playlists/internal/models"
)

// Service is a streaming provider that hosts the generated playlists.
//
// Tracks returned by a Service carry the service's [Service.Code] as their origin code
// and the provider's native id as their track id.
type Service interface {
	Code() string // Code is the configuration key, e.g. "spotify"
	Name() string // Name is the display name

	// Login prepares authenticated access. It must be called before any other operation.
	Login(ctx context.Context) error

	// SearchTracks returns at most limit tracks matching the free-text query, best match first.
	SearchTracks(ctx context.Context, query string, limit int) (*models.TrackList, error)
	// PlaylistTracks returns the tracks currently in a playlist. A limit of zero or less returns all.
	PlaylistTracks(ctx context.Context, playlistID string, limit int) (*models.TrackList, error)
	// UpdatePlaylistTracks replaces the full contents of a playlist.
	UpdatePlaylistTracks(ctx context.Context, info models.ServicePlaylistTracks) error
	// UpdatePlaylistDetails sets the playlist title, description and visibility.
	UpdatePlaylistDetails(ctx context.Context, info models.ServicePlaylistInfo) error

	// EmbeddedTrack returns the service's own track when track already identifies one, or nil.
	EmbeddedTrack(track *models.Track) *models.Track
}

// embeddedTrack is the shared [Service.EmbeddedTrack] rule: a track produced by the service itself
// with a native id needs no search.
func embeddedTrack(code string, track *models.Track) *models.Track {
	if track == nil || track.OriginCode() != code || track.TrackID() == "" {
		return nil
	}
	return track
}

func clampLimit(limit, lower, upper int) int {
	return max(lower, min(limit, upper))
}
