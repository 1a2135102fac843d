package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and the owner account",
	Args:  cobra.NoArgs,
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
		if n > 0 {
			fmt.Printf("Database %s already has %d account(s); nothing to do.\n", a.cfg.DBPath, n)
			return nil
		}
		return a.ensureOwner(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
