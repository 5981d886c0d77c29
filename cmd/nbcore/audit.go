package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/nb-core/internal/audit"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
)

func auditCmd() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "List recent audit trail entries",
		Description: `Prints registrations, logins and catalog imports, most recent first.

Examples:
  nbcore audit --action login --limit 20
  nbcore audit --user 42`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "action",
				Usage: "only entries with this action (registered, login, seed)",
			},
			&cli.Int64Flag{
				Name:  "user",
				Usage: "only entries for this user id",
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: 50,
				Usage: "maximum entries to print (at most 200)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)

			db, err := openDatabase(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := audit.NewSQLiteRepository(db.DB).List(ctx, audit.Filter{
				Action: cmd.String("action"),
				UserID: cmd.Int64("user"),
				Limit:  int(cmd.Int("limit")),
			})
			if err != nil {
				return fmt.Errorf("listing audit entries: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTION\tUSER\tSOURCE")
			for _, e := range result.Entries {
				user := "-"
				if e.UserID != 0 {
					user = fmt.Sprint(e.UserID)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Format(time.RFC3339), e.Action, user, e.Source)
			}
			if err := tw.Flush(); err != nil {
				return fmt.Errorf("writing audit entries: %w", err)
			}
			fmt.Fprintf(cmd.Root().Writer, "%d of %d entries\n", len(result.Entries), result.Total)
			return nil
		},
	}
}
