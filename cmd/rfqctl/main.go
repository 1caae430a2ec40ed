// Package main provides rfqctl, a command-line client over the quotation services that
// talks to the database directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

type globalFlags struct {
	dsn    string
	driver string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "rfqctl",
		Short:         "Manage RFQs, quotation versions and negotiations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.dsn, "dsn", "", "Database DSN (overrides DATABASE_DSN)")
	rootCmd.PersistentFlags().StringVar(&g.driver, "driver", "", "Database driver: postgres or sqlite (overrides DB_DRIVER)")

	rootCmd.AddCommand(
		newMigrateCmd(g),
		newSeedCmd(g),
		newRfqCmd(g),
		newVersionsCmd(g),
		newSummaryCmd(g),
		newExportCmd(g),
	)
	return rootCmd
}
