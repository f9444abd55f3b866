package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/shelf-go/internal/aggregate"
)

func init() {
	SeriesProgressCommand.Flags().String("family", "", "id of the family")
	SeriesProgressCommand.Flags().String("member", "", "id of the member; progress is empty without one")
	SeriesProgressCommand.MarkFlagRequired("family")
	SeriesCommand.AddCommand(&SeriesProgressCommand)
	RootCmd.AddCommand(&SeriesCommand)
}

var SeriesCommand = cobra.Command{
	Use:   "series",
	Short: "Inspect series",
}

var SeriesProgressCommand = cobra.Command{
	Use:   "progress",
	Short: "Show a member's progress through every series",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := appContext(cmd)
		if err != nil {
			return err
		}
		snap, err := st.Snapshot(ctx.FamilyID, ctx.MemberID)
		if err != nil {
			return fmt.Errorf("error loading library: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERIES\tOWNED\tREAD\tTOTAL\tPROGRESS")
		for _, s := range aggregate.ListSeriesWithProgress(ctx, snap) {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d%%\n", s.Name, s.BooksOwned, s.BooksRead, s.ResolvedTotal, s.ProgressPercent)
		}
		return w.Flush()
	},
}
