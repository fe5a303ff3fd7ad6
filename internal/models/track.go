package models

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Track is a track that may be part of a playlist.
//
// A Track is read-only once constructed. The only state it gains later is its normalised form,
// which is computed at most once per instance by [Track.NormaliseWith].
type Track struct {
	originCode string
	trackID    string
	title      string
	artists    []string
	raw        any

	normOnce   sync.Once
	normalised atomic.Pointer[TrackNormalised]
}

// NewTrack creates a [Track]. An empty trackID means the producer has no native id for it.
func NewTrack(originCode, trackID, title string, artists []string, raw any) *Track {
	return &Track{
		originCode: originCode,
		trackID:    trackID,
		title:      title,
		artists:    cloneStrings(artists),
		raw:        raw,
	}
}

// OriginCode identifies the source or service that produced the track.
func (t *Track) OriginCode() string { return t.originCode }

// TrackID is the producer's native identifier, or "" when absent.
func (t *Track) TrackID() string { return t.trackID }

// Title returns the title as supplied by the producer.
func (t *Track) Title() string { return t.title }

// Artists returns a copy of the artist list; the first artist is the primary artist.
func (t *Track) Artists() []string { return cloneStrings(t.artists) }

// Raw returns the producer's original payload.
func (t *Track) Raw() any { return t.raw }

// Normalised returns the cached normalised form, or nil if the track has not been normalised.
func (t *Track) Normalised() *TrackNormalised {
	return t.normalised.Load()
}

// NormaliseWith computes the normalised form with fn on the first call and returns the cached value on every call.
func (t *Track) NormaliseWith(fn func(title string, artists []string) *TrackNormalised) *TrackNormalised {
	t.normOnce.Do(func() {
		t.normalised.Store(fn(t.title, t.Artists()))
	})
	return t.normalised.Load()
}

func (t *Track) String() string {
	return fmt.Sprintf("%s: '%s' - '%s'", t.originCode, t.title, strings.Join(t.artists, "', '"))
}

// TrackNormalised is the canonical (title, artists) pair used for comparison and query building.
// It is never used for display.
type TrackNormalised struct {
	title   string
	artists []string

	queriesOnce sync.Once
	queries     []string
}

// NewTrackNormalised creates a [TrackNormalised] from already normalised values.
func NewTrackNormalised(title string, artists []string) *TrackNormalised {
	if artists == nil {
		artists = []string{}
	}
	return &TrackNormalised{title: title, artists: cloneStrings(artists)}
}

// Title returns the normalised title.
func (n *TrackNormalised) Title() string { return n.title }

// Artists returns a copy of the normalised artists, original artists first, then artists found in the title.
func (n *TrackNormalised) Artists() []string { return cloneStrings(n.artists) }

// Queries returns the search queries for this track, most specific first.
//
// For N artists there are N queries: the title followed by the first i artists, for i = N down to 1.
func (n *TrackNormalised) Queries() []string {
	n.queriesOnce.Do(func() {
		n.queries = make([]string, 0, len(n.artists))
		for i := len(n.artists); i > 0; i-- {
			parts := append([]string{n.title}, n.artists[:i]...)
			n.queries = append(n.queries, strings.Join(parts, " "))
		}
	})
	return cloneStrings(n.queries)
}

func (n *TrackNormalised) String() string {
	return fmt.Sprintf("'%s' - '%s'", n.title, strings.Join(n.artists, "', '"))
}

// TrackListType describes how the order of a [TrackList] should be read.
type TrackListType int

const (
	TrackListUnknown TrackListType = iota
	// TrackListOrdered is already ranked, e.g. a published most-played chart.
	TrackListOrdered
	// TrackListAllPlays is a raw play log that must be reduced to a ranking before use.
	TrackListAllPlays
)

func (t TrackListType) String() string {
	switch t {
	case TrackListOrdered:
		return "ordered"
	case TrackListAllPlays:
		return "all_plays"
	default:
		return "unknown"
	}
}

// TrackList is a titled sequence of tracks with declared ordering semantics.
type TrackList struct {
	Type   TrackListType
	Title  string
	Tracks []*Track
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
