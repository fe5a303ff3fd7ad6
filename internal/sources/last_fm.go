package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

const (
	LastFMCode = "last-fm"

	lastFMURL   = "https://ws.audioscrobbler.com/2.0"
	lastFMLimit = "50"
)

// LastFMTrack is an entry in a Last.fm chart.
type LastFMTrack struct {
	Name      string `json:"name"`
	Duration  string `json:"duration"`
	Listeners string `json:"listeners"`
	URL       string `json:"url"`
	MBID      string `json:"mbid"`
	Artist    struct {
		Name string `json:"name"`
		URL  string `json:"url"`
		MBID string `json:"mbid"`
	} `json:"artist"`
	Attr struct {
		Rank string `json:"rank"`
	} `json:"@attr"`
}

type lastFMTopTracks struct {
	Tracks struct {
		Track []LastFMTrack `json:"track"`
	} `json:"tracks"`
}

// LastFM reads the Last.fm geographic charts.
type LastFM struct {
	base
	apiKey string
	apiURL string
}

// NewLastFM creates the Last.fm source. The API key is only checked when a chart is fetched.
func NewLastFM(dl Downloader, loc *time.Location, apiKey string, opts ...Option) *LastFM {
	return &LastFM{base: newBase(dl, loc, opts), apiKey: apiKey, apiURL: lastFMURL}
}

func (l *LastFM) Code() string { return LastFMCode }

func (l *LastFM) Available() map[string]Fetcher {
	return map[string]Fetcher{
		"aus-most-played-weekly": l.country("australia"),
	}
}

func (l *LastFM) country(country string) Fetcher {
	return func(ctx context.Context, title string, refresh bool) (*models.TrackList, error) {
		l.logger.Info("get track list", "source", l.Code(), "title", title)

		top, err := l.topTracks(ctx, country, refresh)
		if err != nil {
			return nil, err
		}

		list := &models.TrackList{Type: models.TrackListOrdered, Title: title}
		for _, t := range top {
			list.Tracks = append(list.Tracks, models.NewTrack(l.Code(), t.MBID, t.Name, []string{t.Artist.Name}, t))
		}
		return list, nil
	}
}

func (l *LastFM) topTracks(ctx context.Context, country string, refresh bool) ([]LastFMTrack, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("%w: last-fm api_key", shared.ErrMissingCredentials)
	}

	params := url.Values{}
	params.Set("api_key", l.apiKey)
	params.Set("method", "geo.gettoptracks")
	params.Set("country", country)
	params.Set("format", "json")
	params.Set("limit", lastFMLimit)
	params.Set("page", "1")

	var top lastFMTopTracks
	if err := l.dl.GetJSON(ctx, l.apiURL, params, refresh, &top); err != nil {
		return nil, fmt.Errorf("last.fm top tracks for %s: %w", country, err)
	}
	return top.Tracks.Track, nil
}
