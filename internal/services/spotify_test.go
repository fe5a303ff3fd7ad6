package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

type spotifyFake struct {
	mu       sync.Mutex
	server   *httptest.Server
	puts     map[string][]byte
	posts    map[string][]byte
	lastAuth string
	query    map[string]string
}

func newSpotifyFake(t *testing.T) *spotifyFake {
	t.Helper()
	f := &spotifyFake{puts: map[string][]byte{}, posts: map[string][]byte{}, query: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("grant_type") == "refresh_token" && r.Form.Get("refresh_token") != "good-refresh" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600,"refresh_token":"new-refresh"}`))
	})
	mux.HandleFunc("GET /v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.Write([]byte(`{"tracks":{"total":2,"items":[
			{"id":"t1","name":"Song One","uri":"spotify:track:t1","artists":[{"name":"Artist A"},{"name":"Artist B"}]},
			{"id":"t2","name":"Song Two","uri":"spotify:track:t2","artists":[{"name":"Artist C"}]}]}}`))
	})
	mux.HandleFunc("GET /v1/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.URL.Query().Get("page") == "2" {
			w.Write([]byte(`{"items":[{"track":{"id":"t3","name":"Three","artists":[{"name":"C"}]}}],"next":null}`))
			return
		}
		next := f.server.URL + "/v1/playlists/pl1/tracks?page=2"
		w.Write([]byte(`{"items":[{"track":{"id":"t1","name":"One","artists":[{"name":"A"}]}},{"track":null},
			{"track":{"id":"t2","name":"Two","artists":[{"name":"B"}]}}],"next":"` + next + `"}`))
	})
	mux.HandleFunc("PUT /v1/playlists/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		f.store(f.puts, r.PathValue("id")+"/tracks", r)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"snapshot_id":"s"}`))
	})
	mux.HandleFunc("POST /v1/playlists/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		f.store(f.posts, r.PathValue("id")+"/tracks", r)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"snapshot_id":"s"}`))
	})
	mux.HandleFunc("PUT /v1/playlists/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.store(f.puts, r.PathValue("id"), r)
		w.WriteHeader(http.StatusOK)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *spotifyFake) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
	for k := range r.URL.Query() {
		f.query[k] = r.URL.Query().Get(k)
	}
}

func (f *spotifyFake) store(into map[string][]byte, key string, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
	into[key] = body
}

func newTestSpotify(t *testing.T, f *spotifyFake, refresh string) *SpotifyService {
	t.Helper()
	cfg := shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret", RefreshToken: refresh}
	svc, err := NewSpotifyService(cfg, NewDownloader(WithDownloaderLogger(quietLogger())),
		WithSpotifyEndpoints(f.server.URL+"/authorize", f.server.URL+"/token", f.server.URL+"/v1"),
		WithSpotifyLogger(quietLogger()))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return svc
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("requires client credentials", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("defaults", func(t *testing.T) {
			svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "s"}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.Code() != "spotify" || svc.Name() != "Spotify" {
				t.Errorf("unexpected code/name %q/%q", svc.Code(), svc.Name())
			}
			if svc.OAuthConfig().RedirectURL != "http://127.0.0.1:3000/callback" {
				t.Errorf("unexpected redirect %q", svc.OAuthConfig().RedirectURL)
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		f := newSpotifyFake(t)
		u := newTestSpotify(t, f, "").AuthURL("state-123")
		for _, want := range []string{"state=state-123", "client_id=id", "playlist-modify-public", "access_type=offline"} {
			if !strings.Contains(u, want) {
				t.Errorf("expected auth url to contain %q, got %s", want, u)
			}
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		f := newSpotifyFake(t)
		token, err := newTestSpotify(t, f, "").Exchange(ctx, "code")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.RefreshToken != "new-refresh" {
			t.Errorf("expected refresh token, got %q", token.RefreshToken)
		}
	})

	t.Run("Login", func(t *testing.T) {
		f := newSpotifyFake(t)

		t.Run("requires refresh token", func(t *testing.T) {
			if err := newTestSpotify(t, f, "").Login(ctx); !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
		})

		t.Run("rejected refresh token", func(t *testing.T) {
			if err := newTestSpotify(t, f, "bad").Login(ctx); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("operations need login", func(t *testing.T) {
			_, err := newTestSpotify(t, f, "good-refresh").SearchTracks(ctx, "q", 5)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("SearchTracks", func(t *testing.T) {
		f := newSpotifyFake(t)
		svc := newTestSpotify(t, f, "good-refresh")
		if err := svc.Login(ctx); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		list, err := svc.SearchTracks(ctx, "song one artist a", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(list.Tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(list.Tracks))
		}
		first := list.Tracks[0]
		if first.OriginCode() != "spotify" || first.TrackID() != "t1" || first.Title() != "Song One" {
			t.Errorf("unexpected track %v", first)
		}
		if got := first.Artists(); len(got) != 2 || got[1] != "Artist B" {
			t.Errorf("unexpected artists %v", got)
		}
		if f.lastAuth != "Bearer access-1" {
			t.Errorf("expected bearer token, got %q", f.lastAuth)
		}
		for k, want := range map[string]string{"q": "song one artist a", "limit": "5", "type": "track", "market": "AU"} {
			if f.query[k] != want {
				t.Errorf("expected query %s=%q, got %q", k, want, f.query[k])
			}
		}
	})

	t.Run("PlaylistTracks follows pages", func(t *testing.T) {
		f := newSpotifyFake(t)
		svc := newTestSpotify(t, f, "good-refresh")
		svc.Login(ctx)

		list, err := svc.PlaylistTracks(ctx, "pl1", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var ids []string
		for _, tr := range list.Tracks {
			ids = append(ids, tr.TrackID())
		}
		if strings.Join(ids, ",") != "t1,t2,t3" {
			t.Errorf("expected t1,t2,t3, got %v", ids)
		}

		limited, err := svc.PlaylistTracks(ctx, "pl1", 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(limited.Tracks) != 1 {
			t.Errorf("expected 1 track, got %d", len(limited.Tracks))
		}
	})

	t.Run("UpdatePlaylistTracks", func(t *testing.T) {
		f := newSpotifyFake(t)
		svc := newTestSpotify(t, f, "good-refresh")
		svc.Login(ctx)

		tracks := []*models.Track{
			models.NewTrack("spotify", "t1", "One", nil, SpotifyTrack{ID: "t1", URI: "spotify:track:raw1"}),
			models.NewTrack("spotify", "t2", "Two", nil, nil),
			models.NewTrack("abc-radio", "", "No id", nil, nil),
		}
		err := svc.UpdatePlaylistTracks(ctx, models.ServicePlaylistTracks{PlaylistID: "pl9", Tracks: tracks})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var body struct {
			URIs []string `json:"uris"`
		}
		if err := json.Unmarshal(f.puts["pl9/tracks"], &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if strings.Join(body.URIs, ",") != "spotify:track:raw1,spotify:track:t2" {
			t.Errorf("unexpected uris %v", body.URIs)
		}
		if len(f.posts) != 0 {
			t.Errorf("expected no appends, got %v", f.posts)
		}
	})

	t.Run("UpdatePlaylistTracks appends beyond 100", func(t *testing.T) {
		f := newSpotifyFake(t)
		svc := newTestSpotify(t, f, "good-refresh")
		svc.Login(ctx)

		var tracks []*models.Track
		for i := range 150 {
			tracks = append(tracks, models.NewTrack("spotify", "id"+string(rune('a'+i%26)), "t", nil, nil))
		}
		if err := svc.UpdatePlaylistTracks(ctx, models.ServicePlaylistTracks{PlaylistID: "big", Tracks: tracks}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var put, post struct {
			URIs []string `json:"uris"`
		}
		json.Unmarshal(f.puts["big/tracks"], &put)
		json.Unmarshal(f.posts["big/tracks"], &post)
		if len(put.URIs) != 100 || len(post.URIs) != 50 {
			t.Errorf("expected 100 replaced and 50 appended, got %d and %d", len(put.URIs), len(post.URIs))
		}
	})

	t.Run("UpdatePlaylistTracks with no tracks clears the playlist", func(t *testing.T) {
		f := newSpotifyFake(t)
		svc := newTestSpotify(t, f, "good-refresh")
		svc.Login(ctx)

		if err := svc.UpdatePlaylistTracks(ctx, models.ServicePlaylistTracks{PlaylistID: "empty"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(f.puts["empty/tracks"]) != `{"uris":[]}` {
			t.Errorf("expected empty uris, got %s", f.puts["empty/tracks"])
		}
	})

	t.Run("UpdatePlaylistDetails", func(t *testing.T) {
		f := newSpotifyFake(t)
		svc := newTestSpotify(t, f, "good-refresh")
		svc.Login(ctx)

		info := models.ServicePlaylistInfo{PlaylistID: "pl1", Title: "Title", Description: "Desc", Public: true}
		if err := svc.UpdatePlaylistDetails(ctx, info); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(f.puts["pl1"]) != `{"name":"Title","description":"Desc","public":true}` {
			t.Errorf("unexpected body %s", f.puts["pl1"])
		}

		info.PlaylistID = "missing"
		if err := svc.UpdatePlaylistDetails(ctx, info); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("EmbeddedTrack", func(t *testing.T) {
		svc, _ := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "s"}, nil)
		tests := []struct {
			name  string
			track *models.Track
			want  bool
		}{
			{"own track", models.NewTrack("spotify", "t1", "x", nil, nil), true},
			{"own track without id", models.NewTrack("spotify", "", "x", nil, nil), false},
			{"other origin", models.NewTrack("last-fm", "mbid", "x", nil, nil), false},
			{"nil", nil, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := svc.EmbeddedTrack(tt.track) != nil; got != tt.want {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			})
		}
	})
}
