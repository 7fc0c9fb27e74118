// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand creates the config file and the cache schema.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, initialize the cache database and run migrations",
		Action: r.Setup,
	}
}

// dbCommand handles schema maintenance
func dbCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Cache database maintenance",
		Commands: []*cli.Command{
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.DBRollback,
			},
			{
				Name:   "status",
				Usage:  "List migrations and whether they are applied",
				Action: r.DBStatus,
			},
		},
	}
}

// authCommand runs the terminal OAuth flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2 and save the token to the config file",
		Action: r.Auth,
	}
}

// serveCommand runs the web dashboard
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web dashboard",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the dashboard in the browser",
			},
		},
		Action: r.Serve,
	}
}

// syncCommand handles cache synchronization
func syncCommand(r *Runner) *cli.Command {
	jsonFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output the sync run as JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}

	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize the local cache with Spotify",
		Commands: []*cli.Command{
			{
				Name:   "refresh",
				Usage:  "Full refresh: liked songs, playlists and memberships, removing stale entries",
				Flags:  jsonFlags,
				Action: r.SyncRefresh,
			},
			{
				Name:   "cleanup",
				Usage:  "Remove cached songs, playlists and memberships that no longer exist remotely",
				Flags:  jsonFlags,
				Action: r.SyncCleanup,
			},
			{
				Name:   "liked",
				Usage:  "Fetch liked songs into the cache",
				Flags:  jsonFlags,
				Action: r.SyncLiked,
			},
			{
				Name:   "playlists",
				Usage:  "Fetch playlists and owned playlist memberships into the cache",
				Flags:  jsonFlags,
				Action: r.SyncPlaylists,
			},
			{
				Name:  "runs",
				Usage: "List recent sync runs",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				}, jsonFlags...),
				Action: r.SyncRuns,
			},
		},
	}
}

// backupCommand writes a JSON backup of every playlist
func backupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Back up every playlist and its tracks to a timestamped JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory (overrides backup.dir)",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent playlist fetches (max 10)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second",
			},
		},
		Action: r.Backup,
	}
}

// analyzeCommand exports the songs × playlists matrix
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Export which liked songs are in which owned playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (overrides analysis.path)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "csv or xlsx (overrides analysis.format)",
			},
			&cli.IntFlag{
				Name:  "preview",
				Usage: "Number of rows to preview",
				Value: 10,
			},
		},
		Action: r.Analyze,
	}
}

// libraryCommand lists what is in the cache
func libraryCommand(r *Runner) *cli.Command {
	outputFlags := func(extra ...cli.Flag) []cli.Flag {
		return append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		}, extra...)
	}

	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Browse the local cache",
		Commands: []*cli.Command{
			{
				Name:   "songs",
				Usage:  "List cached liked songs, newest first",
				Flags:  outputFlags(),
				Action: r.LibrarySongs,
			},
			{
				Name:   "playlists",
				Usage:  "List cached playlists",
				Flags:  outputFlags(),
				Action: r.LibraryPlaylists,
			},
			{
				Name:  "played",
				Usage: "List the play history",
				Flags: outputFlags(&cli.IntFlag{
					Name:  "limit",
					Usage: "Maximum number of entries",
					Value: 50,
				}),
				Action: r.LibraryPlayed,
			},
		},
	}
}

// playerCommand controls Spotify playback
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "player",
		Usage: "Control Spotify playback",
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "Play a song on the active (or first) device",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlayerPlay,
			},
			{
				Name:   "stop",
				Usage:  "Pause playback",
				Action: r.PlayerStop,
			},
			{
				Name:  "seek",
				Usage: "Move the playhead by a relative offset in milliseconds (use -- before negative offsets)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "offset"},
				},
				Action: r.PlayerSeek,
			},
			{
				Name:  "status",
				Usage: "Show the current playback state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlayerStatus,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive library browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal browser",
		Action:  r.TUI,
	}
}
