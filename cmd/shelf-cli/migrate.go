package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(&MigrateCommand)
}

// Opening the app applies pending migrations, so there is nothing left to
// do once PersistentPreRunE has succeeded.
var MigrateCommand = cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Database at %s is up to date.\n", app.Config().Database.Path)
	},
}
