package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/music-playlists/internal/formatter"
	"github.com/desertthunder/music-playlists/internal/shared"
)

// SourcesList prints every configured playlist whose track list is available.
func (r *Runner) SourcesList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	process, err := r.openProcess()
	if err != nil {
		return err
	}
	rows := process.ListAvailable()

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(rows, true)
	case formatter.FormatTable:
		table := make([][]string, 0, len(rows))
		for _, row := range rows {
			table = append(table, []string{row.Source, row.Code, row.Service, row.Title, row.PlaylistID})
		}
		return r.writePlain("%s\n", formatter.RenderRows([]string{"Source", "Code", "Service", "Title", "Playlist ID"}, table))
	default:
		return fmt.Errorf("%w: sources list supports table or json, not %q", shared.ErrInvalidFlag, format)
	}
}

// SourcesShow fetches one track list and renders it.
func (r *Runner) SourcesShow(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: track list name, e.g. abc-radio-triplej-most-played-daily", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	process, err := r.openProcess()
	if err != nil {
		return err
	}

	r.logger.Info("fetching track list", "name", name, "refresh", cmd.Bool("refresh"))
	list, err := process.SourceShow(ctx, name, cmd.Bool("refresh"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(list, format, path); err != nil {
			return err
		}
		r.logger.Info("track list written", "path", path, "tracks", len(list.Tracks))
		return nil
	}

	data, err := formatter.Render(list, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
