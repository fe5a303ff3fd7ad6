package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/music-playlists/internal/models"
)

const (
	ABCRadioCode = "abc-radio"

	abcRadioURL     = "https://music.abcradio.net.au/api/v1"
	abcUnearthedURL = "https://www.abc.net.au/triplejunearthed/api/loader/TracksShowcaseLoader"

	abcPageLimit = 100
)

// ABCArtist is an artist credited on an ABC recording or release.
type ABCArtist struct {
	ARID string `json:"arid"`
	Name string `json:"name"`
	Type string `json:"type"`
	Role string `json:"role,omitempty"`
}

// ABCRecording is a recording in the ABC music library.
type ABCRecording struct {
	ARID     string      `json:"arid"`
	Title    string      `json:"title"`
	Duration int         `json:"duration"`
	Artists  []ABCArtist `json:"artists"`
}

// ABCRelease is a release in the ABC music library.
type ABCRelease struct {
	ARID    string      `json:"arid"`
	Title   string      `json:"title"`
	Format  string      `json:"format"`
	Artists []ABCArtist `json:"artists"`
}

// ABCPlay is one broadcast of a recording.
type ABCPlay struct {
	ARID       string        `json:"arid"`
	PlayedTime string        `json:"played_time"`
	ServiceID  string        `json:"service_id"`
	Recording  *ABCRecording `json:"recording"`
	Release    *ABCRelease   `json:"release"`
}

type abcRecordingPlays struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
	Items  []*ABCRecording `json:"items"`
}

type abcPlaysSearch struct {
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
	Items  []ABCPlay `json:"items"`
}

// UnearthedTrack is a track uploaded to triple j Unearthed.
type UnearthedTrack struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Codename string   `json:"codename"`
	Explicit bool     `json:"explicit"`
	Genres   []string `json:"genres"`
	Artist   struct {
		ProfileName string `json:"profileName"`
		Slug        string `json:"slug"`
	} `json:"artist"`
}

type unearthedShowcase struct {
	TrackOfTheDay  *UnearthedTrack   `json:"trackOfTheDay"`
	PopularTracks  []*UnearthedTrack `json:"popularTracks"`
	DiscoverTracks []*UnearthedTrack `json:"discoverTracks"`
}

// ABCRadio reads the ABC radio station charts and play logs.
type ABCRadio struct {
	base
	radioURL     string
	unearthedURL string
}

// NewABCRadio creates the ABC Radio source. Dates are calculated in loc.
func NewABCRadio(dl Downloader, loc *time.Location, opts ...Option) *ABCRadio {
	return &ABCRadio{base: newBase(dl, loc, opts), radioURL: abcRadioURL, unearthedURL: abcUnearthedURL}
}

func (a *ABCRadio) Code() string { return ABCRadioCode }

func (a *ABCRadio) Available() map[string]Fetcher {
	return map[string]Fetcher{
		"doublej-most-played-daily":    a.mostPlayed("doublej"),
		"triplej-most-played-daily":    a.mostPlayed("triplej"),
		"unearthed-most-played-weekly": a.UnearthedMostPlayed,
		"jazz-recently-played":         a.recentlyPlayed("jazz"),
		"classic-recently-played":      a.recentlyPlayed("classic"),
	}
}

// dateRange covers the eight days before today.
func (a *ABCRadio) dateRange() (from, to time.Time) {
	today := a.today()
	return today.AddDate(0, 0, -8), today.AddDate(0, 0, -1)
}

func (a *ABCRadio) mostPlayed(service string) Fetcher {
	return func(ctx context.Context, title string, refresh bool) (*models.TrackList, error) {
		a.logger.Info("get track list", "source", a.Code(), "title", title)

		from, to := a.dateRange()
		plays, err := a.recordingsPlays(ctx, service, from, to, abcPageLimit, 0, refresh)
		if err != nil {
			return nil, err
		}

		list := &models.TrackList{Type: models.TrackListOrdered, Title: title}
		for _, rec := range plays.Items {
			if rec != nil {
				list.Tracks = append(list.Tracks, a.recordingTrack(rec))
			}
		}
		return list, nil
	}
}

func (a *ABCRadio) recentlyPlayed(service string) Fetcher {
	return func(ctx context.Context, title string, refresh bool) (*models.TrackList, error) {
		a.logger.Info("get track list", "source", a.Code(), "title", title)

		from, to := a.dateRange()
		list := &models.TrackList{Type: models.TrackListAllPlays, Title: title}
		for offset := 0; ; offset += abcPageLimit {
			search, err := a.playsSearch(ctx, service, from, to, abcPageLimit, offset, refresh)
			if err != nil {
				return nil, err
			}
			for _, play := range search.Items {
				if track := a.playTrack(play); track != nil {
					list.Tracks = append(list.Tracks, track)
				}
			}
			if len(search.Items) == 0 || search.Offset+len(search.Items) >= search.Total {
				break
			}
		}
		return list, nil
	}
}

// UnearthedMostPlayed lists the track of the day, then the popular tracks, then the discover tracks.
func (a *ABCRadio) UnearthedMostPlayed(ctx context.Context, title string, refresh bool) (*models.TrackList, error) {
	a.logger.Info("get track list", "source", a.Code(), "title", title)

	var showcase unearthedShowcase
	if err := a.dl.GetJSON(ctx, a.unearthedURL, nil, refresh, &showcase); err != nil {
		return nil, fmt.Errorf("unearthed tracks showcase: %w", err)
	}

	items := append([]*UnearthedTrack{showcase.TrackOfTheDay}, showcase.PopularTracks...)
	items = append(items, showcase.DiscoverTracks...)

	list := &models.TrackList{Type: models.TrackListOrdered, Title: title}
	for _, item := range items {
		if item == nil {
			continue
		}
		list.Tracks = append(list.Tracks, models.NewTrack(a.Code(), item.ID, item.Title, []string{item.Artist.ProfileName}, item))
	}
	return list, nil
}

// recordingsPlays gets the most played recordings for a station.
func (a *ABCRadio) recordingsPlays(ctx context.Context, service string, from, to time.Time, limit, offset int, refresh bool) (*abcRecordingPlays, error) {
	params := url.Values{}
	params.Set("order", "desc")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("service", service)
	params.Set("from", from.Format("2006-01-02")+"T13:00:00Z")
	params.Set("to", to.Format("2006-01-02")+"T13:00:00Z")

	var plays abcRecordingPlays
	if err := a.dl.GetJSON(ctx, a.radioURL+"/recordings/plays.json", params, refresh, &plays); err != nil {
		return nil, fmt.Errorf("abc recordings plays for %s: %w", service, err)
	}
	return &plays, nil
}

// playsSearch gets one page of the play log for a station.
func (a *ABCRadio) playsSearch(ctx context.Context, station string, from, to time.Time, limit, offset int, refresh bool) (*abcPlaysSearch, error) {
	params := url.Values{}
	params.Set("station", station)
	params.Set("from", from.Format("2006-01-02")+"T14:00:00")
	params.Set("to", to.Format("2006-01-02")+"T13:59:59")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("order", "desc")
	params.Set("offset", strconv.Itoa(offset))

	var search abcPlaysSearch
	if err := a.dl.GetJSON(ctx, a.radioURL+"/plays/search.json", params, refresh, &search); err != nil {
		return nil, fmt.Errorf("abc plays search for %s: %w", station, err)
	}
	return &search, nil
}

func (a *ABCRadio) recordingTrack(rec *ABCRecording) *models.Track {
	return models.NewTrack(a.Code(), rec.ARID, rec.Title, artistNames(rec.Artists), rec)
}

// playTrack uses the play's recording, falling back to its release.
func (a *ABCRadio) playTrack(play ABCPlay) *models.Track {
	switch {
	case play.Recording != nil:
		return a.recordingTrack(play.Recording)
	case play.Release != nil:
		return models.NewTrack(a.Code(), play.Release.ARID, play.Release.Title, artistNames(play.Release.Artists), play.Release)
	default:
		return nil
	}
}

func artistNames(artists []ABCArtist) []string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return names
}
