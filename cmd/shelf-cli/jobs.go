package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	JobsCommand.AddCommand(&JobsRunCommand)
	JobsCommand.AddCommand(&JobsListCommand)
	RootCmd.AddCommand(&JobsCommand)
}

var JobsCommand = cobra.Command{
	Use:   "jobs",
	Short: "Run maintenance jobs",
}

var JobsListCommand = cobra.Command{
	Use:   "list",
	Short: "List the registered jobs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, status := range app.JobManager().GetStatus() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", status.ID, status.Name)
		}
	},
}

var JobsRunCommand = cobra.Command{
	Use:   "run <job-id>",
	Short: "Run a job and wait for it to finish",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.JobManager().RunJobAndWait(args[0], app); err != nil {
			return fmt.Errorf("job %s failed: %w", args[0], err)
		}
		for _, status := range app.JobManager().GetStatus() {
			if status.ID == args[0] {
				fmt.Fprintln(cmd.OutOrStdout(), status.Message)
			}
		}
		return nil
	},
}
