package main

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexanderalber/spotify-playlist-manager/internal/formatter"
	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/alexanderalber/spotify-playlist-manager/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Backup writes every playlist with its tracks to a timestamped JSON file.
func (r *Runner) Backup(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	opts := r.backupOpts()
	if dir := cmd.String("dir"); dir != "" {
		opts.Dir = dir
	}
	if workers := cmd.Int("workers"); workers > 0 {
		opts.NumWorkers = workers
	}
	if rate := cmd.Float("rate"); rate > 0 {
		opts.RateLimit = rate
	}

	r.writePlainHeader("Backup")

	var result *tasks.BackupResult
	err = r.withReauth(ctx, func() error {
		return r.track(func(progress chan<- tasks.ProgressUpdate) error {
			var backupErr error
			result, backupErr = engine.Backup(ctx, opts, progress)
			return backupErr
		})
	})
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	r.writePlainln("✓ Backed up %d playlists (%d tracks) to %s", result.Playlists, result.Tracks, result.Path)
	for _, line := range result.Summary() {
		r.writePlain("  %s\n", line)
	}
	return nil
}

// Analyze exports the liked songs × owned playlists matrix as CSV or XLSX and prints a preview.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	format := strings.ToLower(cmp.Or(cmd.String("format"), r.config.Analysis.Format, "csv"))
	path := cmd.String("output")
	if path == "" {
		path = analysisPath(r.config.Analysis.Path, format)
	}

	var analysis *models.Analysis
	err = r.withReauth(ctx, func() error {
		return r.track(func(progress chan<- tasks.ProgressUpdate) error {
			var analyzeErr error
			analysis, analyzeErr = engine.Analyze(ctx, progress)
			return analyzeErr
		})
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	switch format {
	case "csv":
		path, err = formatter.WriteAnalysisCSV(analysis, path)
	case "xlsx":
		path, err = formatter.WriteAnalysisXLSX(analysis, path)
	default:
		return fmt.Errorf("%w: unknown analysis format %q (want csv or xlsx)", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	r.writePlainln("✓ Analysis written to %s", path)
	if n := cmd.Int("preview"); n > 0 {
		r.writePlain("\n%s\n", formatter.AnalysisPreview(analysis, n))
	}
	return nil
}

// analysisPath returns the configured path when its extension matches format, else the format's default file name.
func analysisPath(configured, format string) string {
	if configured != "" && strings.EqualFold(filepath.Ext(configured), "."+format) {
		return configured
	}
	if format == "xlsx" {
		return formatter.DefaultAnalysisXLSX
	}
	return formatter.DefaultAnalysisCSV
}
