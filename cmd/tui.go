package main

import (
	"context"
	"fmt"

	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/alexanderalber/spotify-playlist-manager/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogFile = "./tmp/spm-tui.log"

// TUI launches the interactive terminal browser over the cache.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	path := r.config.Log.File
	if path == "" {
		path = tuiLogFile
	}
	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger = fileLogger

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	if err := ui.Run(ctx, engine); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
