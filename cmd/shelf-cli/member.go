package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/shelf-go/internal/aggregate"
)

func init() {
	MemberCommand.PersistentFlags().String("family", "", "id of the family")
	MemberCommand.MarkPersistentFlagRequired("family")
	MemberCommand.AddCommand(&MemberAddCommand)
	MemberCommand.AddCommand(&MemberListCommand)
	RootCmd.AddCommand(&MemberCommand)
}

// appContext builds the AppContext from the --family and optional
// --member flags. The member must belong to the family.
func appContext(cmd *cobra.Command) (aggregate.AppContext, error) {
	familyID, _ := cmd.Flags().GetString("family")
	family, err := st.GetFamily(familyID)
	if err != nil {
		return aggregate.AppContext{}, fmt.Errorf("error loading family: %w", err)
	}
	if family == nil {
		return aggregate.AppContext{}, fmt.Errorf("family %s does not exist", familyID)
	}

	ctx := aggregate.AppContext{FamilyID: familyID}
	memberID, _ := cmd.Flags().GetString("member")
	if memberID == "" {
		return ctx, nil
	}
	member, err := st.GetMember(familyID, memberID)
	if err != nil {
		return ctx, fmt.Errorf("error loading member: %w", err)
	}
	if member == nil {
		return ctx, fmt.Errorf("member %s is not part of family %s", memberID, familyID)
	}
	ctx.MemberID = &member.ID
	return ctx, nil
}

var MemberCommand = cobra.Command{
	Use:   "member",
	Short: "Manage the members of a family",
}

var MemberAddCommand = cobra.Command{
	Use:   "add <name>",
	Short: "Add a member to a family",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := appContext(cmd)
		if err != nil {
			return err
		}
		member, err := st.CreateMember(ctx.FamilyID, args[0])
		if err != nil {
			return fmt.Errorf("error adding member: %w", err)
		}
		printJSON(cmd, member)
		return nil
	},
}

var MemberListCommand = cobra.Command{
	Use:   "list",
	Short: "List the members of a family",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := appContext(cmd)
		if err != nil {
			return err
		}
		members, err := st.ListMembers(ctx.FamilyID)
		if err != nil {
			return fmt.Errorf("error listing members: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s\n", m.ID, m.Name)
		}
		return w.Flush()
	},
}
