package main

import (
	"fmt"

	"github.com/diewo77/uds-rfq/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Long:  "Applies the SQL migrations on PostgreSQL, or builds the schema from the models on SQLite.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(g, func(d *Deps) error {
				if err := db.Migrate(d.DB, d.Config.Database, true); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed.")
				return nil
			})
		},
	}
}

func newSeedCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the reference inventory and customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(g, func(d *Deps) error {
				if err := db.Seed(d.DB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Seed completed.")
				return nil
			})
		},
	}
}
