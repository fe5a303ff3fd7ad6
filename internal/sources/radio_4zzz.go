package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

const (
	Radio4ZZZCode = "radio-4zzz"

	radio4ZZZURL       = "https://airnet.org.au/rest/stations/4ZZZ/programs"
	radio4ZZZTimestamp = "2006-01-02 15:04:05"
	radio4ZZZDays      = 7
)

type zzzProgramSummary struct {
	Slug           string `json:"slug"`
	Name           string `json:"name"`
	Broadcasters   string `json:"broadcasters"`
	Archived       *bool  `json:"archived"`
	ProgramRestURL string `json:"programRestUrl"`
}

type zzzProgram struct {
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Broadcasters    string `json:"broadcasters"`
	EpisodesRestURL string `json:"episodesRestUrl"`
}

type zzzEpisodeSummary struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	Duration       int    `json:"duration"`
	Title          string `json:"title"`
	EpisodeRestURL string `json:"episodeRestUrl"`
}

type zzzEpisode struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	Title           string `json:"title"`
	PlaylistRestURL string `json:"playlistRestUrl"`
}

// Radio4ZZZTrack is a track in a 4ZZZ episode playlist.
type Radio4ZZZTrack struct {
	Type    string  `json:"type"`
	ID      int     `json:"id"`
	Artist  string  `json:"artist"`
	Title   *string `json:"title"`
	Track   *string `json:"track"`
	Release *string `json:"release"`
	Time    *string `json:"time"`
}

// Radio4ZZZ reads the playlists of the 4ZZZ community radio programs.
type Radio4ZZZ struct {
	base
	programsURL string
}

// NewRadio4ZZZ creates the 4ZZZ source. Episode times are read in loc.
func NewRadio4ZZZ(dl Downloader, loc *time.Location, opts ...Option) *Radio4ZZZ {
	return &Radio4ZZZ{base: newBase(dl, loc, opts), programsURL: radio4ZZZURL}
}

func (r *Radio4ZZZ) Code() string { return Radio4ZZZCode }

func (r *Radio4ZZZ) Available() map[string]Fetcher {
	return map[string]Fetcher{
		"all-most-played-weekly": r.ActiveProgramTracks,
	}
}

// ActiveProgramTracks lists every track played in the last week by programs that are not archived.
// Only episodes that started and finished inside the week are included.
func (r *Radio4ZZZ) ActiveProgramTracks(ctx context.Context, title string, refresh bool) (*models.TrackList, error) {
	r.logger.Info("get track list", "source", r.Code(), "title", title)

	dateTo := r.now().In(r.loc)
	dateFrom := dateTo.AddDate(0, 0, -radio4ZZZDays)

	var programs []zzzProgramSummary
	if err := r.dl.GetJSON(ctx, r.programsURL, nil, refresh, &programs); err != nil {
		return nil, fmt.Errorf("4zzz programs: %w", err)
	}

	list := &models.TrackList{Type: models.TrackListAllPlays, Title: title}
	for _, summary := range programs {
		if summary.Archived == nil || *summary.Archived {
			continue
		}
		if strings.Trim(summary.ProgramRestURL, "/") == r.programsURL {
			continue
		}

		var program zzzProgram
		if err := r.dl.GetJSON(ctx, summary.ProgramRestURL, nil, refresh, &program); err != nil {
			return nil, fmt.Errorf("4zzz program %s: %w", summary.Name, err)
		}

		var episodes []zzzEpisodeSummary
		if err := r.dl.GetJSON(ctx, program.EpisodesRestURL, nil, refresh, &episodes); err != nil {
			return nil, fmt.Errorf("4zzz episodes for %s: %w", program.Name, err)
		}

		for _, es := range episodes {
			inside, err := r.withinRange(es, dateFrom, dateTo)
			if err != nil {
				return nil, err
			}
			if !inside {
				continue
			}

			var episode zzzEpisode
			if err := r.dl.GetJSON(ctx, es.EpisodeRestURL, nil, refresh, &episode); err != nil {
				return nil, fmt.Errorf("4zzz episode %s: %w", es.Start, err)
			}

			var tracks []Radio4ZZZTrack
			if err := r.dl.GetJSON(ctx, episode.PlaylistRestURL, nil, refresh, &tracks); err != nil {
				return nil, fmt.Errorf("4zzz playlist %s: %w", es.Start, err)
			}
			for _, t := range tracks {
				trackTitle := ""
				if t.Title != nil {
					trackTitle = *t.Title
				}
				list.Tracks = append(list.Tracks, models.NewTrack(r.Code(), strconv.Itoa(t.ID), trackTitle, []string{t.Artist}, t))
			}
		}
	}
	return list, nil
}

func (r *Radio4ZZZ) withinRange(es zzzEpisodeSummary, from, to time.Time) (bool, error) {
	start, err := time.ParseInLocation(radio4ZZZTimestamp, es.Start, r.loc)
	if err != nil {
		return false, fmt.Errorf("%w: 4zzz episode start %q: %v", shared.ErrInvalidSource, es.Start, err)
	}
	end, err := time.ParseInLocation(radio4ZZZTimestamp, es.End, r.loc)
	if err != nil {
		return false, fmt.Errorf("%w: 4zzz episode end %q: %v", shared.ErrInvalidSource, es.End, err)
	}
	return !start.Before(from) && !end.After(to), nil
}
