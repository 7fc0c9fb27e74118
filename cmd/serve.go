package main

import (
	"context"

	"github.com/alexanderalber/spotify-playlist-manager/internal/server"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/alexanderalber/spotify-playlist-manager/internal/tasks"
	"github.com/alexanderalber/spotify-playlist-manager/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web dashboard until the process is interrupted.
//
// The dashboard handles its own login, so a saved token is optional.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	svc, err := r.spotifyService(ctx)
	if err != nil {
		return err
	}

	engine := tasks.NewLibraryEngine(svc, svc, store, r.logger)
	app, err := web.New(engine, svc, r.logger, web.Options{
		CallbackPath: callbackPath(r.config.Credentials.Spotify.RedirectURI),
		Backup:       r.backupOpts(),
		SaveToken:    r.saveToken,
	})
	if err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	dashboard := "http://" + addr + "/"
	r.writePlain("→ Dashboard running at %s (Ctrl+C to stop)\n", dashboard)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(dashboard); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return server.Run(ctx, server.New(addr, app.Router()), r.logger)
}

func (r *Runner) backupOpts() tasks.BackupOpts {
	return tasks.BackupOpts{
		Dir:        r.config.Backup.Dir,
		NumWorkers: r.config.Backup.Workers,
		RateLimit:  r.config.Backup.RateLimit,
	}
}
