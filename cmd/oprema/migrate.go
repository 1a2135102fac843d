package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/oprema/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: "Apply pending schema migrations. Upgrading a database that predates " +
		"the cable uniqueness index first merges duplicate cable rows.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		n, err := countUsers(cmd, a)
		if err != nil {
			return err
		}
		fmt.Printf("Database %s is up to date (%d account(s)).\n", a.cfg.DBPath, n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func countUsers(cmd *cobra.Command, a *app) (int, error) {
	n, err := store.CountUsers(cmd.Context(), a.db)
	if err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return n, nil
}
