// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/sources"
)

// MockService is a test double for [services.Service].
//
// Search results are looked up by exact query. Every call is recorded.
type MockService struct {
	mu sync.Mutex

	ServiceCode   string
	SearchResults map[string][]*models.Track
	Playlists     map[string][]*models.Track

	LoginErr   error
	SearchErr  error
	UpdateErr  error
	DetailsErr error

	LoggedIn      bool
	Searches      []string
	SearchLimits  []int
	UpdatedTracks map[string][]*models.Track
	UpdatedInfo   map[string]models.ServicePlaylistInfo
	Calls         []string
}

// NewMockService creates a [MockService] with the given code.
func NewMockService(code string) *MockService {
	return &MockService{
		ServiceCode:   code,
		SearchResults: map[string][]*models.Track{},
		Playlists:     map[string][]*models.Track{},
		UpdatedTracks: map[string][]*models.Track{},
		UpdatedInfo:   map[string]models.ServicePlaylistInfo{},
	}
}

// AddResult registers search results for a query, creating tracks with the service's code.
func (m *MockService) AddResult(query string, tracks ...*models.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchResults[query] = append(m.SearchResults[query], tracks...)
}

func (m *MockService) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *MockService) Code() string { return m.ServiceCode }
func (m *MockService) Name() string { return "mock " + m.ServiceCode }

func (m *MockService) Login(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("login")
	if m.LoginErr != nil {
		return m.LoginErr
	}
	m.LoggedIn = true
	return nil
}

func (m *MockService) SearchTracks(ctx context.Context, query string, limit int) (*models.TrackList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("search")
	m.Searches = append(m.Searches, query)
	m.SearchLimits = append(m.SearchLimits, limit)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	tracks := m.SearchResults[query]
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return &models.TrackList{Type: models.TrackListOrdered, Tracks: tracks}, nil
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string, limit int) (*models.TrackList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("playlist")
	return &models.TrackList{Type: models.TrackListOrdered, Tracks: m.Playlists[playlistID]}, nil
}

func (m *MockService) UpdatePlaylistTracks(ctx context.Context, info models.ServicePlaylistTracks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("tracks")
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.UpdatedTracks[info.PlaylistID] = info.Tracks
	m.Playlists[info.PlaylistID] = info.Tracks
	return nil
}

func (m *MockService) UpdatePlaylistDetails(ctx context.Context, info models.ServicePlaylistInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("details")
	if m.DetailsErr != nil {
		return m.DetailsErr
	}
	m.UpdatedInfo[info.PlaylistID] = info
	return nil
}

func (m *MockService) EmbeddedTrack(track *models.Track) *models.Track {
	if track == nil || track.OriginCode() != m.ServiceCode || track.TrackID() == "" {
		return nil
	}
	return track
}

// MockSource is a test double for [sources.Source] serving fixed track lists.
type MockSource struct {
	mu sync.Mutex

	SourceCode string
	Lists      map[string]*models.TrackList
	Errs       map[string]error
	Fetches    []string
	Refreshes  []bool
}

// NewMockSource creates a [MockSource] with the given code.
func NewMockSource(code string) *MockSource {
	return &MockSource{SourceCode: code, Lists: map[string]*models.TrackList{}, Errs: map[string]error{}}
}

func (m *MockSource) Code() string { return m.SourceCode }

func (m *MockSource) Available() map[string]sources.Fetcher {
	out := map[string]sources.Fetcher{}
	for code := range m.Lists {
		out[code] = m.fetcher(code)
	}
	for code := range m.Errs {
		out[code] = m.fetcher(code)
	}
	return out
}

func (m *MockSource) fetcher(code string) sources.Fetcher {
	return func(ctx context.Context, title string, refresh bool) (*models.TrackList, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Fetches = append(m.Fetches, code)
		m.Refreshes = append(m.Refreshes, refresh)
		if err := m.Errs[code]; err != nil {
			return nil, err
		}
		list := m.Lists[code]
		return &models.TrackList{Type: list.Type, Title: title, Tracks: list.Tracks}, nil
	}
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

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
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
