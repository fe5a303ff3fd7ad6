package matching

import (
	"testing"

	"github.com/desertthunder/music-playlists/internal/models"
)

func TestMostPlayed(t *testing.T) {
	t.Run("ranks repeated plays", func(t *testing.T) {
		x1, x2, x3 := newTrack("X", "A"), newTrack("X", "A"), newTrack("X", "A")
		z1, z2 := newTrack("Z", "C"), newTrack("Z", "C")
		y := newTrack("Y", "B")

		list := &models.TrackList{
			Type:   models.TrackListAllPlays,
			Title:  "plays",
			Tracks: []*models.Track{z1, x1, y, x2, z2, x3},
		}
		got := MostPlayed(list)

		if got.Type != models.TrackListOrdered {
			t.Errorf("expected ordered list, got %v", got.Type)
		}
		if got.Title != "plays" {
			t.Errorf("expected title to carry through, got %q", got.Title)
		}
		if len(got.Tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(got.Tracks))
		}
		if got.Tracks[0] != x1 || got.Tracks[1] != z1 {
			t.Errorf("expected [X, Z] represented by first plays, got %v", got.Tracks)
		}
	})

	t.Run("ties keep first seen order", func(t *testing.T) {
		b1, b2 := newTrack("B", "A"), newTrack("B", "A")
		a1, a2 := newTrack("A", "A"), newTrack("A", "A")

		got := MostPlayed(&models.TrackList{Tracks: []*models.Track{b1, a1, a2, b2}})
		if len(got.Tracks) != 2 || got.Tracks[0] != b1 || got.Tracks[1] != a1 {
			t.Errorf("expected [B, A], got %v", got.Tracks)
		}
	})

	t.Run("grouping uses raw strings", func(t *testing.T) {
		got := MostPlayed(&models.TrackList{Tracks: []*models.Track{newTrack("Song", "A"), newTrack("song", "a")}})
		if len(got.Tracks) != 0 {
			t.Errorf("expected case variants to be separate groups, got %v", got.Tracks)
		}
	})

	t.Run("empty artists are skipped in the key", func(t *testing.T) {
		got := MostPlayed(&models.TrackList{Tracks: []*models.Track{newTrack("Song", "", "A"), newTrack("Song", "A")}})
		if len(got.Tracks) != 1 {
			t.Errorf("expected one group, got %v", got.Tracks)
		}
	})

	t.Run("nil list", func(t *testing.T) {
		got := MostPlayed(nil)
		if got == nil || len(got.Tracks) != 0 || got.Type != models.TrackListOrdered {
			t.Errorf("expected empty ordered list, got %+v", got)
		}
	})
}
