package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/discover/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when it is missing, then initializes the database and runs migrations.
// With --rollback it reverts the most recent migration instead.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	config, err := r.loadConfig(configPath)
	if err != nil {
		return err
	}

	if cmd.Bool("rollback") {
		return r.rollbackDatabase(ctx, config.Database)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	versions, err := shared.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlainln("Database %s is at migration %d", config.Database.Path, len(versions))
}

func (r *Runner) rollbackDatabase(ctx context.Context, cfg shared.DatabaseConfig) error {
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	r.logger.Info("rolling back latest migration", "path", cfg.Path)
	if err := shared.RollbackMigration(ctx, db); err != nil {
		return err
	}

	versions, err := shared.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	return r.writePlainln("Database %s is at migration %d", cfg.Path, len(versions))
}
