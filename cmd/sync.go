package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/tasks"
	"github.com/urfave/cli/v3"
)

type syncOp func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.SyncRun, error)

// runSync executes one engine sync operation with progress output and prints the resulting run.
func (r *Runner) runSync(ctx context.Context, cmd *cli.Command, title string, op func(*tasks.LibraryEngine) syncOp) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	if !cmd.Bool("json") {
		r.writePlainHeader(title)
	}

	var run *models.SyncRun
	err = r.withReauth(ctx, func() error {
		return r.track(func(progress chan<- tasks.ProgressUpdate) error {
			var opErr error
			run, opErr = op(engine)(ctx, progress)
			return opErr
		})
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", title, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(run, cmd.Bool("pretty"))
	}
	r.printRun(run)
	return nil
}

func (r *Runner) printRun(run *models.SyncRun) {
	r.writePlainln("✓ %s %s in %s", run.Kind, run.Status, run.Duration().Round(time.Millisecond))
	r.writePlain("  Liked songs: %d\n", run.LikedCount)
	r.writePlain("  Playlists:   %d\n", run.PlaylistCount)
	r.writePlain("  Memberships: %d\n", run.MembershipCount)
	r.writePlain("  Removed:     %d\n", run.RemovedCount)
}

// SyncRefresh runs a full refresh of the cache.
func (r *Runner) SyncRefresh(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, "Refresh", func(e *tasks.LibraryEngine) syncOp { return e.Refresh })
}

// SyncCleanup removes stale cache entries without fetching new ones.
func (r *Runner) SyncCleanup(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, "Cleanup", func(e *tasks.LibraryEngine) syncOp { return e.Cleanup })
}

// SyncLiked fetches liked songs into the cache.
func (r *Runner) SyncLiked(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, "Liked songs", func(e *tasks.LibraryEngine) syncOp { return e.FetchLikedSongs })
}

// SyncPlaylists fetches playlists and owned memberships into the cache.
func (r *Runner) SyncPlaylists(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, "Playlists", func(e *tasks.LibraryEngine) syncOp { return e.FetchPlaylists })
}

// SyncRuns lists recent sync runs, newest first.
func (r *Runner) SyncRuns(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}
	store, err := r.openStore()
	if err != nil {
		return err
	}

	runs, err := store.Runs.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		return r.writePlain("No sync runs recorded yet\n")
	}

	r.writePlain("Found %d sync runs:\n\n", len(runs))
	for _, run := range runs {
		r.writePlain("%s  %-9s %-9s liked=%d playlists=%d memberships=%d removed=%d\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Kind, run.Status,
			run.LikedCount, run.PlaylistCount, run.MembershipCount, run.RemovedCount)
		if run.ErrorMessage != "" {
			r.writePlain("  error: %s\n", run.ErrorMessage)
		}
	}
	return nil
}
