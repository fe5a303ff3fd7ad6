package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/services"
)

// queryCache maps a search query to the service track it matched.
type queryCache struct {
	matches map[string]*models.Track
}

func newQueryCache() *queryCache {
	return &queryCache{matches: map[string]*models.Track{}}
}

type foundTracks struct {
	tracks  []*models.Track // matched service tracks in source order, each at most once
	missing []*models.Track // source tracks with no match
	found   int             // source tracks with a match, including repeats of an earlier match
}

func (f *foundTracks) add(seen map[string]bool, track *models.Track) {
	f.found++
	key := track.TrackID()
	if key == "" {
		key = fmt.Sprintf("%p", track)
	}
	if seen[key] {
		return
	}
	seen[key] = true
	f.tracks = append(f.tracks, track)
}

// findTracks finds each source track on the service.
//
// A track the service already identifies is used directly. Otherwise the track's queries are tried
// most specific first, reusing earlier matches for the same query, until one search result matches.
func (p *Process) findTracks(ctx context.Context, svc services.Service, tracks []*models.Track, cache *queryCache, progress chan<- ProgressUpdate) (*foundTracks, error) {
	out := &foundTracks{}
	seen := map[string]bool{}

	sendProgress(progress, searchTracksUpdate(0, len(tracks), svc.Name(), nil))
	for i, track := range tracks {
		sendProgress(progress, searchTracksUpdate(i+1, len(tracks), svc.Name(), track))

		if embedded := svc.EmbeddedTrack(track); embedded != nil {
			out.add(seen, embedded)
			continue
		}

		queries := p.normaliser.Queries(track)
		var (
			match       *models.Track
			nearest     *models.Track
			nearestDist = -1
			searched    int
		)
		for _, query := range queries {
			if m, ok := cache.matches[query]; ok {
				match = m
				break
			}

			results, err := svc.SearchTracks(ctx, query, p.window)
			if err != nil {
				return nil, fmt.Errorf("search %s for %q: %w", svc.Name(), query, err)
			}
			searched += min(len(results.Tracks), p.window)

			if m := p.normaliser.Match(track, results.Tracks, p.window); m != nil {
				cache.matches[query] = m
				match = m
				break
			}
			if c, d := p.normaliser.NearestMiss(track, results.Tracks, p.window); c != nil && (nearestDist < 0 || d < nearestDist) {
				nearest, nearestDist = c, d
			}
		}

		if match != nil {
			out.add(seen, match)
			continue
		}

		out.missing = append(out.missing, track)
		kv := []any{"track", track, "service", svc.Name(), "searched", searched, "queries", strings.Join(queries, " | ")}
		if nearest != nil {
			kv = append(kv, "nearest", nearest, "distance", nearestDist)
		}
		p.logger.Warn("no match for track", kv...)
	}
	return out, nil
}

func foundInfo(found, total int) string {
	percent := float64(found) / (float64(total) + 0.000001) * 100
	return fmt.Sprintf("Found %d of %d songs (%.0f%%)", found, total, percent)
}

// Description is the playlist description written to the services.
func Description(generated time.Time, found, total int) string {
	return strings.Join([]string{
		fmt.Sprintf("This playlist was generated on %s.", generated.Format("Mon, 02 Jan 2006")),
		foundInfo(found, total) + " from the source playlist.",
		"From: " + ProjectURL,
	}, " ")
}
