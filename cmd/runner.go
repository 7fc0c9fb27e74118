package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/alexanderalber/spotify-playlist-manager/internal/repositories"
	"github.com/alexanderalber/spotify-playlist-manager/internal/services"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/alexanderalber/spotify-playlist-manager/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil are built lazily from the config file on first use.
type Runner struct {
	configPath string
	config     *shared.Config
	service    services.Service
	player     services.Player
	store      *repositories.Store
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer

	tokenMu sync.Mutex // serializes token writes from the OAuth callback and refreshes
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	ConfigPath string
	Config     *shared.Config
	Service    services.Service
	Player     services.Player
	Store      *repositories.Store
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		configPath: opts.ConfigPath,
		config:     opts.Config,
		service:    opts.Service,
		player:     opts.Player,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "spm",
		Usage:   "Mirror, browse and back up your Spotify library",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
		},
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, dbCommand, authCommand, serveCommand, syncCommand,
		backupCommand, analyzeCommand, libraryCommand, playerCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// load reads the config file named by --config, applies environment overrides and builds the logger.
// It is a no-op for dependencies already provided.
func (r *Runner) load(cmd *cli.Command) error {
	if r.configPath == "" {
		r.configPath = cmd.String("config")
		if r.configPath == "" {
			r.configPath = defaultConfigPath
		}
	}

	if r.config == nil {
		config, err := shared.LoadOrDefault(r.configPath)
		if err != nil {
			return err
		}

		env, err := shared.LoadEnv()
		if err != nil {
			return err
		}
		env.Apply(config)
		r.config = config
	}

	if r.logger == nil {
		logger, err := shared.NewAppLogger(r.config.Log, os.Stderr)
		if err != nil {
			return err
		}
		r.logger = logger
	}
	return shared.SetLogLevelString(r.logger, r.config.Log.Level)
}

// openDB opens the cache database without touching its schema.
func (r *Runner) openDB() (*sql.DB, error) {
	if r.store != nil && r.store.DB() != nil {
		return r.store.DB(), nil
	}
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	r.db = db
	return db, nil
}

// openStore opens the cache database and brings its schema up to date.
func (r *Runner) openStore() (*repositories.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := r.openDB()
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.store = repositories.NewStore(db)
	return r.store, nil
}

// spotifyService builds the Spotify client from the config credentials, authenticated when a token was saved.
// Refreshed tokens are written back to the config file.
func (r *Runner) spotifyService(ctx context.Context) (*services.SpotifyService, error) {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	svc, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveToken(token); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
			return
		}
		r.logger.Debug("refreshed token saved", "path", r.configPath)
	})

	if token := creds.Token(); token != nil {
		if err := svc.OAuthenticate(ctx, token); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// connect makes sure a remote catalog and player are available.
func (r *Runner) connect(ctx context.Context) error {
	if r.service != nil {
		return nil
	}

	if !r.config.Credentials.Spotify.HasToken() {
		return fmt.Errorf("%w: run 'spm auth' first", shared.ErrNotAuthenticated)
	}

	svc, err := r.spotifyService(ctx)
	if err != nil {
		return err
	}
	r.service, r.player = svc, svc
	return nil
}

// engine wires the cache and the remote service into a [tasks.LibraryEngine].
func (r *Runner) engine(ctx context.Context, cmd *cli.Command) (*tasks.LibraryEngine, error) {
	if err := r.load(cmd); err != nil {
		return nil, err
	}
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	if err := r.connect(ctx); err != nil {
		return nil, err
	}
	return tasks.NewLibraryEngine(r.service, r.player, store, r.logger), nil
}

// saveToken records token in memory and in the config file.
// Only the token fields are written: the file is reloaded so environment overrides never reach disk.
func (r *Runner) saveToken(token *oauth2.Token) error {
	r.tokenMu.Lock()
	defer r.tokenMu.Unlock()

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	onDisk, err := shared.LoadOrDefault(r.configPath)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if err := onDisk.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if err := shared.SaveConfig(r.configPath, onDisk); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Close releases the database opened by the runner.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// track runs fn with a progress channel whose updates are printed as they arrive.
func (r *Runner) track(fn func(progress chan<- tasks.ProgressUpdate) error) error {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	err := fn(progress)
	close(progress)
	<-done
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
