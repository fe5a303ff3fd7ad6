package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
)

// CachePurge deletes expired cached responses, or all of them with --all.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}

	var removed int64
	if cmd.Bool("all") {
		removed, err = cache.PurgeAll()
	} else {
		removed, err = cache.Purge(time.Now())
	}
	if err != nil {
		return err
	}

	r.logger.Info("cache purged", "removed", removed, "all", cmd.Bool("all"))
	r.writePlain("✓ Removed %d cached responses\n", removed)
	return nil
}
