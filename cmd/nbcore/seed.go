package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/nb-core/internal/audit"
	"github.com/nerrad567/nb-core/internal/catalog"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
)

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Import recipes from a YAML seed file",
		Description: `Reads recipes from a YAML file and inserts those whose name is not yet
in the catalog. Running the same file twice is a no-op.

Example:
  nbcore seed --file configs/seed.yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "seed file (default: catalog.seed_file from config)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)

			path := cmd.String("file")
			if path == "" {
				path = cfg.Catalog.SeedFile
			}
			if path == "" {
				return fmt.Errorf("no seed file: pass --file or set catalog.seed_file")
			}

			seed, err := catalog.LoadSeedFile(path)
			if err != nil {
				return err
			}

			db, err := openDatabase(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := catalog.Seed(ctx, catalog.NewRepository(db.DB), seed)
			if err != nil {
				return fmt.Errorf("seeding catalog: %w", err)
			}

			entry := &audit.Entry{
				Action: audit.ActionSeed,
				Source: audit.SourceCLI,
				Details: map[string]any{
					"file":    path,
					"created": result.Created,
					"skipped": result.Skipped,
				},
			}
			if err := audit.NewSQLiteRepository(db.DB).Create(ctx, entry); err != nil {
				log.Warn("recording audit entry failed", "error", err)
			}

			log.Info("catalog seeded", "file", path, "created", result.Created, "skipped", result.Skipped)
			fmt.Fprintf(cmd.Root().Writer, "created %d, skipped %d\n", result.Created, result.Skipped)
			return nil
		},
	}
}
