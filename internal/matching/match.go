package matching

import (
	"github.com/agnivade/levenshtein"

	"github.com/desertthunder/music-playlists/internal/models"
)

// DefaultWindow is the number of search results considered by [Normaliser.Match].
const DefaultWindow = 5

// Queries returns the search queries for track, most specific first, normalising it if needed.
func (n *Normaliser) Queries(track *models.Track) []string {
	normalised := n.NormaliseTrack(track)
	if normalised == nil {
		return nil
	}
	return normalised.Queries()
}

type matchKey struct {
	title   string
	artists []string
}

func (n *Normaliser) matchKey(track *models.Track) matchKey {
	normalised := n.NormaliseTrack(track)
	artists := normalised.Artists()
	for i, a := range artists {
		artists[i] = removeSpacesMemo.get(a, n.cache)
	}
	return matchKey{title: removeSpacesMemo.get(normalised.Title(), n.cache), artists: artists}
}

// window returns the first size candidates. A size of zero or less considers nothing.
func window(candidates []*models.Track, size int) []*models.Track {
	if size <= 0 {
		return nil
	}
	if size > len(candidates) {
		size = len(candidates)
	}
	return candidates[:size]
}

// Match returns the first of the first size candidates that is the same song as track, or nil.
//
// Titles must be equal once all whitespace is removed.
// Artists match when either side's artists are all present in the other side's artists,
// so a search result listing fewer featured artists still matches.
func (n *Normaliser) Match(track *models.Track, candidates []*models.Track, size int) *models.Track {
	if track == nil {
		return nil
	}
	want := n.matchKey(track)
	haystack := window(candidates, size)

	for _, other := range haystack {
		if other == nil {
			continue
		}
		got := n.matchKey(other)

		titleOK := want.title == got.title
		artistsOK := subset(want.artists, got.artists) || subset(got.artists, want.artists)
		if titleOK && artistsOK {
			n.logger.Debug("matched track", "track", track, "result", other,
				"normalised", track.Normalised(), "result_normalised", other.Normalised())
			return other
		}
		n.logger.Debug("no match for track", "track", track, "result", other,
			"normalised", track.Normalised(), "result_normalised", other.Normalised())
	}

	n.logger.Debug("no match for track in search results", "track", track, "considered", len(haystack))
	return nil
}

// NearestMiss returns the candidate within the window whose title is closest to track's by edit distance,
// along with that distance. It returns nil and -1 when there is nothing to compare.
//
// It is only used to explain a failed match and never affects [Normaliser.Match].
func (n *Normaliser) NearestMiss(track *models.Track, candidates []*models.Track, size int) (*models.Track, int) {
	if track == nil {
		return nil, -1
	}
	want := n.matchKey(track)

	var nearest *models.Track
	best := -1
	for _, other := range window(candidates, size) {
		if other == nil {
			continue
		}
		d := levenshtein.ComputeDistance(want.title, n.matchKey(other).title)
		if best < 0 || d < best {
			nearest, best = other, d
		}
	}
	return nearest, best
}
