package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/nb-core/internal/infrastructure/database"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations",
		Description: `Applies every pending migration in version order, each in its own
transaction. With --status nothing is changed and the applied and pending
versions are listed. With --down the most recent migration is rolled back.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "list applied and pending migrations without changing anything",
			},
			&cli.BoolFlag{
				Name:  "down",
				Usage: "roll back the most recently applied migration",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("status") && cmd.Bool("down") {
				return fmt.Errorf("--status and --down cannot be combined")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)

			db, err := database.Open(database.Config{
				Path:        cfg.Database.Path,
				WALMode:     cfg.Database.WALMode,
				BusyTimeout: cfg.Database.BusyTimeout,
			})
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			out := cmd.Root().Writer

			switch {
			case cmd.Bool("status"):
				applied, pending, err := db.GetMigrationStatus(ctx)
				if err != nil {
					return fmt.Errorf("reading migration status: %w", err)
				}
				for _, m := range applied {
					fmt.Fprintf(out, "applied  %s  %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
				}
				for _, m := range pending {
					fmt.Fprintf(out, "pending  %s  %s\n", m.Version, m.Name)
				}
				return nil

			case cmd.Bool("down"):
				if err := db.MigrateDown(ctx); err != nil {
					return fmt.Errorf("rolling back migration: %w", err)
				}
				log.Info("rolled back latest migration", "path", cfg.Database.Path)
				fmt.Fprintln(out, "rolled back latest migration")
				return nil

			default:
				if err := db.Migrate(ctx); err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
				log.Info("database migrations complete", "path", cfg.Database.Path)
				fmt.Fprintln(out, "migrations complete")
				return nil
			}
		},
	}
}
