package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/nb-core/internal/infrastructure/config"
	"github.com/nerrad567/nb-core/internal/infrastructure/database"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
)

const (
	name = "nbcore"

	// defaultConfigPath is used when neither --config nor NBCORE_CONFIG is set.
	// A missing default file falls back to built-in defaults.
	defaultConfigPath = "configs/config.yaml"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "NB Core recipe catalog backend",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config.yaml",
				Sources: cli.EnvVars("NBCORE_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override logging.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			seedCmd(),
			auditCmd(),
		},
	}
}

// loadConfig resolves the configuration for cmd: an explicit path must
// exist, the default path is optional.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(path); !explicit && errors.Is(statErr, fs.ErrNotExist) {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// openDatabase opens the configured database and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}
