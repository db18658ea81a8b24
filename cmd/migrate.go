package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		// store.Open migrates on the way in.
		s, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date.\n", redactDSN(cfg.DatabaseURL))
		return nil
	},
}
