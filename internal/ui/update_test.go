package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/music-playlists/internal/shared"
	"github.com/desertthunder/music-playlists/internal/tasks"
)

type fakeUpdater struct {
	updates []tasks.ProgressUpdate
	results []*tasks.UpdateResult
	err     error
	block   bool
}

func (f *fakeUpdater) ServicesUpdate(ctx context.Context, filter tasks.UpdateFilter, progress chan<- tasks.ProgressUpdate) ([]*tasks.UpdateResult, error) {
	for _, u := range f.updates {
		progress <- u
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.results, f.err
}

// drive feeds the model its own commands until the update completes.
func drive(t *testing.T, m *UpdateModel, cmd tea.Cmd) {
	t.Helper()
	for i := 0; i < 100 && cmd != nil && !m.done; i++ {
		_, cmd = m.Update(cmd())
	}
	if !m.done {
		t.Fatal("expected the update to complete")
	}
}

func TestUpdateModel(t *testing.T) {
	t.Run("renders progress and results", func(t *testing.T) {
		result := &tasks.UpdateResult{Source: "abc-radio-triplej-most-played-daily", Service: "spotify", Found: 3, Total: 4}
		runner := &fakeUpdater{
			updates: []tasks.ProgressUpdate{
				{Phase: tasks.Login, Step: 1, Total: 1, Message: "Logging in to Spotify..."},
				{Phase: tasks.FetchSource, Step: 1, Total: 1, Message: "Fetching abc-radio-triplej-most-played-daily"},
				{Phase: tasks.SearchTracks, Step: 2, Total: 4, Message: "Searching"},
				{Phase: tasks.Finished, Step: 1, Total: 1, Message: "[1/1] ✓ found 3 of 4", Data: result},
			},
			results: []*tasks.UpdateResult{result},
		}
		m := NewUpdateModel(context.Background(), runner, tasks.UpdateFilter{Service: "spotify"})

		if !strings.Contains(m.View(), "Starting...") {
			t.Errorf("expected starting label, got:\n%s", m.View())
		}

		cmd := m.start()
		_, cmd = m.Update(cmd())
		if !strings.Contains(m.View(), "Logging in to Spotify") {
			t.Errorf("expected login message, got:\n%s", m.View())
		}
		_, cmd = m.Update(cmd())
		_, cmd = m.Update(cmd())
		if m.searched != 0.5 || !strings.Contains(m.View(), "Searching tracks (2/4)") {
			t.Errorf("expected half way through the search, got %v:\n%s", m.searched, m.View())
		}

		drive(t, m, cmd)
		results, err := m.Result()
		if err != nil || len(results) != 1 || results[0] != result {
			t.Errorf("unexpected result %v %v", results, err)
		}
		view := m.View()
		if !strings.Contains(view, "found 3 of 4") || !strings.Contains(view, "Updated 1 playlists") {
			t.Errorf("unexpected final view:\n%s", view)
		}
	})

	t.Run("shows failures", func(t *testing.T) {
		runner := &fakeUpdater{err: shared.ErrAPIRequest}
		m := NewUpdateModel(context.Background(), runner, tasks.UpdateFilter{})
		drive(t, m, m.start())

		if _, err := m.Result(); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(m.View(), "Finished with errors") {
			t.Errorf("expected error view, got:\n%s", m.View())
		}
	})

	t.Run("quit cancels the run", func(t *testing.T) {
		runner := &fakeUpdater{block: true}
		m := NewUpdateModel(context.Background(), runner, tasks.UpdateFilter{})
		cmd := m.start()

		if _, quit := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); quit != nil {
			t.Error("expected to wait for the update before quitting")
		}
		if !m.quitting || !strings.Contains(m.View(), "Cancelling") {
			t.Error("expected cancelling state")
		}

		drive(t, m, cmd)
		if _, err := m.Result(); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}

		if _, quit := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); quit == nil {
			t.Error("expected quit once done")
		}
	})
}
