package matching

import (
	"slices"
	"strings"

	"github.com/desertthunder/music-playlists/internal/models"
)

// MostPlayed reduces a play log to the tracks played more than once, most played first.
//
// Plays are grouped on their raw artists and title, not the normalised form.
// Groups with equal counts keep the order in which they were first seen.
// Each group is represented by its first play.
func MostPlayed(list *models.TrackList) *models.TrackList {
	result := &models.TrackList{Type: models.TrackListOrdered}
	if list == nil {
		return result
	}
	result.Title = list.Title

	type group struct {
		first *models.Track
		count int
	}

	index := make(map[string]int)
	var groups []*group
	for _, track := range list.Tracks {
		if track == nil {
			continue
		}
		key := playKey(track)
		if i, ok := index[key]; ok {
			groups[i].count++
			continue
		}
		index[key] = len(groups)
		groups = append(groups, &group{first: track, count: 1})
	}

	groups = slices.DeleteFunc(groups, func(g *group) bool { return g.count < 2 })
	slices.SortStableFunc(groups, func(a, b *group) int { return b.count - a.count })

	result.Tracks = make([]*models.Track, 0, len(groups))
	for _, g := range groups {
		result.Tracks = append(result.Tracks, g.first)
	}
	return result
}

func playKey(track *models.Track) string {
	parts := make([]string, 0, len(track.Artists())+1)
	for _, v := range append(track.Artists(), track.Title()) {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "-")
}
