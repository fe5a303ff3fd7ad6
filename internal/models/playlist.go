package models

// ServicePlaylistTracks is the full replacement track list for a service playlist.
type ServicePlaylistTracks struct {
	PlaylistID string
	Tracks     []*Track
}

// ServicePlaylistInfo holds the playlist details written to a service.
type ServicePlaylistInfo struct {
	PlaylistID  string
	Title       string
	Description string
	Public      bool
}
