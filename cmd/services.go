package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/music-playlists/internal/formatter"
	"github.com/desertthunder/music-playlists/internal/tasks"
	"github.com/desertthunder/music-playlists/internal/ui"
)

// ServicesUpdate rewrites the configured service playlists and prints a summary.
func (r *Runner) ServicesUpdate(ctx context.Context, cmd *cli.Command) error {
	filter := tasks.UpdateFilter{
		Code:    cmd.String("code"),
		Source:  cmd.String("source"),
		Service: cmd.String("service"),
		Refresh: cmd.Bool("refresh"),
	}
	asJSON := cmd.Bool("json")

	process, err := r.openProcess()
	if err != nil {
		return err
	}

	var results []*tasks.UpdateResult
	var runErr error
	if cmd.Bool("tui") && !asJSON {
		results, runErr = r.runUpdateTUI(ctx, process, filter)
	} else {
		results, runErr = r.runUpdate(ctx, process, filter, !asJSON)
	}

	if asJSON {
		if err := r.writeJSON(results, true); err != nil {
			return err
		}
		return runErr
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = res.Err.Error()
		}
		rows = append(rows, []string{
			res.Source,
			res.Service,
			res.PlaylistID,
			strconv.Itoa(res.Found) + "/" + strconv.Itoa(res.Total),
			status,
		})
	}

	r.writePlain("\n")
	r.writePlainHeader("Update Complete")
	r.writePlain("%s\n", formatter.RenderRows([]string{"Source", "Service", "Playlist", "Found", "Status"}, rows))

	for _, res := range results {
		if len(res.Missing) == 0 {
			continue
		}
		r.writePlainln("Not found on %s for %s:", res.Service, res.Source)
		for _, t := range res.Missing {
			r.writePlain("  ✗ %s\n", t)
		}
	}

	if runErr != nil {
		return fmt.Errorf("some playlists failed to update: %w", runErr)
	}
	return nil
}

func (r *Runner) runUpdate(ctx context.Context, updater ui.Updater, filter tasks.UpdateFilter, show bool) ([]*tasks.UpdateResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			if show {
				r.printProgress(update)
			}
		}
	}()

	results, err := updater.ServicesUpdate(ctx, filter, progressCh)
	close(progressCh)
	wg.Wait()
	return results, err
}

func (r *Runner) runUpdateTUI(ctx context.Context, updater ui.Updater, filter tasks.UpdateFilter) ([]*tasks.UpdateResult, error) {
	model := ui.NewUpdateModel(ctx, updater, filter)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output))
	if _, err := program.Run(); err != nil {
		return nil, fmt.Errorf("progress view failed: %w", err)
	}
	return model.Result()
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.Login:
		r.writePlain("🔑 %s\n", update.Message)
	case tasks.FetchSource:
		r.writePlain("\n📥 %s\n", update.Message)
	case tasks.SearchTracks:
		if update.Step == 0 {
			r.writePlain("🔍 %s\n", update.Message)
		}
	case tasks.UpdateDetails, tasks.UpdateTracks:
		r.writePlain("📝 %s\n", update.Message)
	case tasks.Finished:
		r.writePlain("%s\n", update.Message)
	}
}
