// Spotify Web API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

const (
	SpotifyCode = "spotify"

	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyMarket     = "AU"
	spotifyMaxSearch  = 50
	spotifyMaxPerEdit = 100
)

// SpotifyScopes are the OAuth scopes needed to rewrite public playlists.
var SpotifyScopes = []string{"playlist-modify-public"}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

type spotifyPlaylistTracksResponse struct {
	Items []SpotifyPlaylistTrack `json:"items"`
	Next  *string                `json:"next"`
}

type spotifyPlaylistDetails struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// SpotifyService implements [Service] for the Spotify Web API.
//
// Access tokens come from an [oauth2.TokenSource] seeded with the configured refresh token,
// so a token is refreshed automatically whenever it expires during a run.
type SpotifyService struct {
	config       *oauth2.Config
	refreshToken string
	apiURL       string
	downloader   *Downloader
	api          *Downloader
	logger       *log.Logger
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithSpotifyEndpoints overrides the accounts and API base URLs.
func WithSpotifyEndpoints(authURL, tokenURL, apiURL string) SpotifyOption {
	return func(s *SpotifyService) {
		s.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInHeader}
		s.apiURL = apiURL
	}
}

// WithSpotifyLogger sets the logger.
func WithSpotifyLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSpotifyService creates a Spotify service from the configured client credentials.
// The refresh token may be empty when the service is only used to run the authorisation flow.
func NewSpotifyService(cfg shared.SpotifyConfig, d *Downloader, opts ...SpotifyOption) (*SpotifyService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}
	if d == nil {
		d = NewDownloader()
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       SpotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyAuthURL,
				TokenURL:  spotifyTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		refreshToken: cfg.RefreshToken,
		apiURL:       spotifyBaseURL,
		downloader:   d,
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Code() string { return SpotifyCode }

func (s *SpotifyService) Name() string { return "Spotify" }

// OAuthConfig returns the OAuth2 configuration used for the authorisation code flow.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// AuthURL returns the authorisation URL the user must visit.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorisation code for a token. The token's refresh token belongs in the config.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Login obtains an access token from the refresh token.
func (s *SpotifyService) Login(ctx context.Context) error {
	if s.refreshToken == "" {
		return fmt.Errorf("%w: run 'mpl setup spotify' first", shared.ErrNoRefreshToken)
	}

	octx := s.oauthContext(ctx)
	source := s.config.TokenSource(octx, &oauth2.Token{RefreshToken: s.refreshToken})
	token, err := source.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	client := oauth2.NewClient(octx, oauth2.ReuseTokenSource(token, source))
	client.Timeout = s.downloader.HTTPClient().Timeout
	s.api = s.downloader.WithClient(client)

	s.logger.Debug("logged in", "service", s.Name(), "expiry", token.Expiry)
	return nil
}

func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.downloader.HTTPClient())
}

// SearchTracks searches the AU market for tracks.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) (*models.TrackList, error) {
	s.logger.Debug("search tracks", "service", s.Name(), "query", query)

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(clampLimit(limit, 1, spotifyMaxSearch)))
	params.Set("offset", "0")
	params.Set("type", "track")
	params.Set("market", spotifyMarket)

	var result spotifySearchResponse
	if err := s.doRequest(ctx, &Request{Method: http.MethodGet, URL: s.apiURL + "/search", Query: params}, &result); err != nil {
		return nil, err
	}

	list := &models.TrackList{Type: models.TrackListOrdered}
	for _, item := range result.Tracks.Items {
		list.Tracks = append(list.Tracks, s.convertTrack(item))
	}
	return list, nil
}

// PlaylistTracks reads the playlist, following the next links.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit int) (*models.TrackList, error) {
	s.logger.Info("get playlist tracks", "service", s.Name(), "playlist", playlistID)

	params := url.Values{}
	params.Set("fields", "items(track(*)),next")
	params.Set("limit", strconv.Itoa(spotifyMaxPerEdit))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(clampLimit(limit, 1, spotifyMaxPerEdit)))
	}

	list := &models.TrackList{Type: models.TrackListOrdered}
	next := s.apiURL + "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	for next != "" {
		var page spotifyPlaylistTracksResponse
		if err := s.doRequest(ctx, &Request{Method: http.MethodGet, URL: next, Query: params, NoCache: true}, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track != nil {
				list.Tracks = append(list.Tracks, s.convertTrack(*item.Track))
			}
		}
		if limit > 0 && len(list.Tracks) >= limit {
			list.Tracks = list.Tracks[:limit]
			break
		}

		next, params = "", nil
		if page.Next != nil {
			next = *page.Next
		}
	}
	return list, nil
}

// UpdatePlaylistTracks replaces the playlist items. The first 100 replace the playlist and the rest are appended.
func (s *SpotifyService) UpdatePlaylistTracks(ctx context.Context, info models.ServicePlaylistTracks) error {
	s.logger.Info("update playlist tracks", "service", s.Name(), "playlist", info.PlaylistID, "tracks", len(info.Tracks))

	uris := make([]string, 0, len(info.Tracks))
	for _, t := range info.Tracks {
		if uri := spotifyURI(t); uri != "" {
			uris = append(uris, uri)
		}
	}

	endpoint := s.apiURL + "/playlists/" + url.PathEscape(info.PlaylistID) + "/tracks"
	method := http.MethodPut
	for start := 0; start == 0 || start < len(uris); start += spotifyMaxPerEdit {
		end := min(start+spotifyMaxPerEdit, len(uris))
		body, err := json.Marshal(map[string][]string{"uris": uris[start:end]})
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		if err := s.doRequest(ctx, &Request{Method: method, URL: endpoint, Body: body, NoCache: true}, nil); err != nil {
			return err
		}
		method = http.MethodPost
	}
	return nil
}

// UpdatePlaylistDetails changes the playlist name, description and visibility.
func (s *SpotifyService) UpdatePlaylistDetails(ctx context.Context, info models.ServicePlaylistInfo) error {
	s.logger.Info("update playlist details", "service", s.Name(), "playlist", info.PlaylistID)

	body, err := json.Marshal(spotifyPlaylistDetails{Name: info.Title, Description: info.Description, Public: info.Public})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	endpoint := s.apiURL + "/playlists/" + url.PathEscape(info.PlaylistID)
	return s.doRequest(ctx, &Request{Method: http.MethodPut, URL: endpoint, Body: body, NoCache: true}, nil)
}

func (s *SpotifyService) EmbeddedTrack(track *models.Track) *models.Track {
	return embeddedTrack(s.Code(), track)
}

// doRequest performs an authenticated request and decodes a JSON result when result is non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, req *Request, result any) error {
	if s.api == nil {
		return fmt.Errorf("%w: call Login first", shared.ErrNotAuthenticated)
	}

	resp, err := s.api.Do(ctx, req)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, req.URL)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify returned status 401", shared.ErrNotAuthenticated)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify %s %s returned status %d", shared.ErrAPIRequest, req.Method, req.URL, resp.StatusCode)
	}

	if result != nil {
		return resp.JSON(result)
	}
	return nil
}

func (s *SpotifyService) convertTrack(t SpotifyTrack) *models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return models.NewTrack(s.Code(), t.ID, t.Name, artists, t)
}

// spotifyURI prefers the uri from the raw Spotify payload.
func spotifyURI(t *models.Track) string {
	if raw, ok := t.Raw().(SpotifyTrack); ok && raw.URI != "" {
		return raw.URI
	}
	if t.TrackID() == "" {
		return ""
	}
	return "spotify:track:" + t.TrackID()
}
