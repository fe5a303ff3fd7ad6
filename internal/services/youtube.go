// YouTube Music [Service] implementation
//
// Communicates with the FastAPI proxy server that wraps the ytmusicapi Python library.
// The browser auth file path is sent to the proxy in the X-Auth-File header on each request.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

const (
	YouTubeMusicCode = "youtube-music"

	defaultYTBaseURL = "http://127.0.0.1:8080"
	ytStatusOK       = "STATUS_SUCCEEDED"
	ytMaxSearch      = 50
)

// YouTubeImage represents an image/thumbnail from YouTube Music.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
	Thumbnails  []YouTubeImage  `json:"thumbnails"`
	SetVideoID  string          `json:"setVideoId,omitempty"` // For playlist operations
}

// YouTubePlaylist represents a playlist from YouTube Music.
type YouTubePlaylist struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Privacy     string         `json:"privacy"`
	TrackCount  int            `json:"trackCount"`
	Tracks      []YouTubeTrack `json:"tracks,omitempty"`
}

type ytPlaylistItem struct {
	VideoID    string `json:"videoId"`
	SetVideoID string `json:"setVideoId"`
}

type ytStatusResponse struct {
	Status string `json:"status"`
}

// YouTubeService implements [Service] for YouTube Music via the proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	downloader *Downloader
	logger     *log.Logger
	loggedIn   bool
}

// NewYouTubeService creates a YouTube Music service for the configured proxy and auth file.
func NewYouTubeService(cfg shared.YouTubeConfig, d *Downloader, logger *log.Logger) *YouTubeService {
	baseURL := cfg.ProxyURL
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if d == nil {
		d = NewDownloader()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &YouTubeService{baseURL: baseURL, authFile: cfg.AuthFile, downloader: d, logger: logger}
}

func (y *YouTubeService) Code() string { return YouTubeMusicCode }

func (y *YouTubeService) Name() string { return "YouTube Music" }

// Login checks that an auth file is configured and the proxy is reachable.
//
// Calls GET /health on the proxy.
func (y *YouTubeService) Login(ctx context.Context) error {
	if y.authFile == "" {
		return fmt.Errorf("%w: youtube-music auth_file, run 'mpl setup youtube' first", shared.ErrMissingCredentials)
	}
	resp, err := y.downloader.Do(ctx, &Request{Method: http.MethodGet, URL: y.baseURL + "/health", NoCache: true})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: youtube music proxy health check returned status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	y.loggedIn = true
	y.logger.Debug("logged in", "service", y.Name(), "proxy", y.baseURL)
	return nil
}

// SetupBrowser converts raw browser request headers into ytmusicapi browser auth JSON.
//
// Calls POST /api/setup/browser on the proxy. No auth file is needed.
func (y *YouTubeService) SetupBrowser(ctx context.Context, headersRaw string) ([]byte, error) {
	if headersRaw == "" {
		return nil, fmt.Errorf("%w: request headers", shared.ErrMissingArgument)
	}
	body, err := json.Marshal(map[string]string{"headers_raw": headersRaw})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	var auth json.RawMessage
	req := &Request{Method: http.MethodPost, URL: y.baseURL + "/api/setup/browser", Body: body, NoCache: true}
	if err := y.send(ctx, req, &auth); err != nil {
		return nil, err
	}
	return auth, nil
}

// SearchTracks searches songs only.
//
// Calls GET /api/search?q={query}&filter=songs&limit={limit} on the proxy.
func (y *YouTubeService) SearchTracks(ctx context.Context, query string, limit int) (*models.TrackList, error) {
	y.logger.Debug("search tracks", "service", y.Name(), "query", query)

	params := url.Values{}
	params.Set("q", query)
	params.Set("filter", "songs")
	params.Set("limit", strconv.Itoa(clampLimit(limit, 1, ytMaxSearch)))

	var results []YouTubeTrack
	if err := y.doRequest(ctx, &Request{Method: http.MethodGet, URL: y.baseURL + "/api/search", Query: params}, &results); err != nil {
		return nil, err
	}
	return y.trackList(results), nil
}

// PlaylistTracks reads a playlist.
//
// Calls GET /api/playlists/{id} on the proxy.
func (y *YouTubeService) PlaylistTracks(ctx context.Context, playlistID string, limit int) (*models.TrackList, error) {
	y.logger.Info("get playlist tracks", "service", y.Name(), "playlist", playlistID)

	var params url.Values
	if limit > 0 {
		params = url.Values{"limit": {strconv.Itoa(limit)}}
	}

	var playlist YouTubePlaylist
	req := &Request{Method: http.MethodGet, URL: y.playlistURL(playlistID), Query: params, NoCache: true}
	if err := y.doRequest(ctx, req, &playlist); err != nil {
		return nil, err
	}
	return y.trackList(playlist.Tracks), nil
}

// UpdatePlaylistTracks removes every existing item and then adds the new tracks, skipping duplicates.
//
// Calls DELETE and POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) UpdatePlaylistTracks(ctx context.Context, info models.ServicePlaylistTracks) error {
	y.logger.Info("update playlist tracks", "service", y.Name(), "playlist", info.PlaylistID, "tracks", len(info.Tracks))

	existing, err := y.PlaylistTracks(ctx, info.PlaylistID, 0)
	if err != nil {
		return err
	}

	itemsURL := y.playlistURL(info.PlaylistID) + "/items"

	if len(existing.Tracks) > 0 {
		items := make([]ytPlaylistItem, 0, len(existing.Tracks))
		for _, t := range existing.Tracks {
			raw, _ := t.Raw().(YouTubeTrack)
			items = append(items, ytPlaylistItem{VideoID: t.TrackID(), SetVideoID: raw.SetVideoID})
		}
		if err := y.edit(ctx, http.MethodDelete, itemsURL, map[string]any{"videos": items}); err != nil {
			return fmt.Errorf("remove playlist items: %w", err)
		}
	}

	videoIDs := make([]string, 0, len(info.Tracks))
	for _, t := range info.Tracks {
		if t.TrackID() != "" {
			videoIDs = append(videoIDs, t.TrackID())
		}
	}
	if len(videoIDs) == 0 {
		return nil
	}
	if err := y.edit(ctx, http.MethodPost, itemsURL, map[string]any{"video_ids": videoIDs, "duplicates": false}); err != nil {
		return fmt.Errorf("add playlist items: %w", err)
	}
	return nil
}

// UpdatePlaylistDetails edits title, description and privacy status.
//
// Calls PUT /api/playlists/{id} on the proxy.
func (y *YouTubeService) UpdatePlaylistDetails(ctx context.Context, info models.ServicePlaylistInfo) error {
	y.logger.Info("update playlist details", "service", y.Name(), "playlist", info.PlaylistID)

	privacy := "PRIVATE"
	if info.Public {
		privacy = "PUBLIC"
	}
	return y.edit(ctx, http.MethodPut, y.playlistURL(info.PlaylistID), map[string]string{
		"title":          info.Title,
		"description":    info.Description,
		"privacy_status": privacy,
	})
}

func (y *YouTubeService) EmbeddedTrack(track *models.Track) *models.Track {
	return embeddedTrack(y.Code(), track)
}

func (y *YouTubeService) playlistURL(playlistID string) string {
	return y.baseURL + "/api/playlists/" + url.PathEscape(playlistID)
}

// edit sends a playlist change and requires the proxy to report STATUS_SUCCEEDED.
func (y *YouTubeService) edit(ctx context.Context, method, target string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	var result ytStatusResponse
	if err := y.doRequest(ctx, &Request{Method: method, URL: target, Body: body, NoCache: true}, &result); err != nil {
		return err
	}
	if result.Status != ytStatusOK {
		return fmt.Errorf("%w: youtube music %s %s returned %q", shared.ErrAPIRequest, method, target, result.Status)
	}
	return nil
}

func (y *YouTubeService) doRequest(ctx context.Context, req *Request, result any) error {
	if !y.loggedIn {
		return fmt.Errorf("%w: call Login first", shared.ErrNotAuthenticated)
	}
	req.Header = http.Header{"X-Auth-File": {y.authFile}}
	return y.send(ctx, req, result)
}

func (y *YouTubeService) send(ctx context.Context, req *Request, result any) error {
	resp, err := y.downloader.Do(ctx, req)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, req.URL)
		}
		if err := json.Unmarshal(resp.Body, &errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		return resp.JSON(result)
	}
	return nil
}

func (y *YouTubeService) trackList(items []YouTubeTrack) *models.TrackList {
	list := &models.TrackList{Type: models.TrackListOrdered}
	for _, item := range items {
		artists := make([]string, 0, len(item.Artists))
		for _, a := range item.Artists {
			artists = append(artists, a.Name)
		}
		list.Tracks = append(list.Tracks, models.NewTrack(y.Code(), item.VideoID, item.Title, artists, item))
	}
	return list
}
