package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template when missing, then initializes the database and runs
// migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
		r.writePlain("✓ Config file created at %s\n", path)
	}

	if err := r.load(cmd); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	store, err := r.openStore()
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	states, err := shared.MigrationStatus(store.DB())
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready at %s (%d migrations applied)\n", r.config.Database.Path, len(states))
	return nil
}

// DBRollback rolls back the most recently applied migration.
func (r *Runner) DBRollback(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}
	db, err := r.openDB()
	if err != nil {
		return err
	}

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return r.writePlain("✓ Rolled back the latest migration\n")
}

// DBStatus lists every migration and whether it has been applied.
func (r *Runner) DBStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}
	db, err := r.openDB()
	if err != nil {
		return err
	}

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations")
	for _, s := range states {
		if s.Applied {
			r.writePlain("✓ %04d %s (applied %s)\n", s.Version, s.Name, s.AppliedAt.Format("2006-01-02 15:04:05"))
		} else {
			r.writePlain("✗ %04d %s (pending)\n", s.Version, s.Name)
		}
	}
	return nil
}
