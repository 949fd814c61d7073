package cli

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"watchlist/internal/bootstrap"
	"watchlist/internal/platform/postgres"
)

func (a *app) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	step := func(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := a.config()
				if err != nil {
					return err
				}
				db, err := bootstrap.OpenDB(cmd.Context(), cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				return run(cmd.Context(), db)
			},
		}
	}
	cmd.AddCommand(
		step("up", "Apply all pending migrations", postgres.MigrateUp),
		step("down", "Roll back the latest migration", postgres.MigrateDown),
		step("status", "Print applied and pending migrations", postgres.MigrateStatus),
	)
	return cmd
}
