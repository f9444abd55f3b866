package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/shelf-go/internal/importer"
)

func init() {
	ImportCommand.Flags().String("family", "", "id of the family")
	ImportCommand.Flags().String("member", "", "id of the member whose library receives the books")
	ImportCommand.MarkFlagRequired("family")
	ImportCommand.MarkFlagRequired("member")
	RootCmd.AddCommand(&ImportCommand)
}

var ImportCommand = cobra.Command{
	Use:   "import <file.csv>",
	Short: "Add the books of a CSV file to a member's library",
	Long: "Add the books of a CSV file to a member's library.\n\n" +
		"The header must name the title and author columns; external_id, series,\n" +
		"number, genres (separated by ';') and status are optional.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := appContext(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		summary, err := importer.Import(ctx, libService, f)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		for _, row := range summary.Rows {
			if row.Error != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "line %d (%s): %s\n", row.Line, row.Title, row.Error)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, already in library %d, failed %d.\n",
			summary.Imported, summary.Existing, summary.Failed)
		return nil
	},
}
