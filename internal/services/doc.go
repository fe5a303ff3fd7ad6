// Package services defines the [Service] interface for the streaming providers that host the generated playlists,
// and implements it for Spotify and YouTube Music.
//
// # Downloader
//
// Every HTTP call goes through a [Downloader], which applies a shared rate limit and optionally stores
// GET and POST responses in the SQLite response cache.
//
// # Spotify Implementation
//
// [SpotifyService] uses an [oauth2.TokenSource] seeded with the configured refresh token.
// The refresh token is obtained once with the authorisation code flow (see [SpotifyService.AuthURL]).
//
// # YouTube Music Implementation
//
// [YouTubeService] communicates with the FastAPI proxy server wrapping ytmusicapi.
// The auth_file path is sent via X-Auth-File header on each request.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Login() not called or token rejected
//   - [shared.ErrNoRefreshToken] : Spotify authorisation has not been run
//   - [shared.ErrAPIRequest] : unexpected status from the provider
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
package services
