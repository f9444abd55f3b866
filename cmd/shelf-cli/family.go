package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/shelf-go/internal/auth"
)

func init() {
	FamilyCommand.AddCommand(&FamilyCreateCommand)
	FamilyCommand.AddCommand(&FamilyListCommand)
	RootCmd.AddCommand(&FamilyCommand)

	UserCreateCommand.Flags().String("family", "", "id of the family the account belongs to")
	UserCreateCommand.Flags().String("role", "user", "account role: admin or user")
	UserCreateCommand.MarkFlagRequired("family")
	UserCommand.AddCommand(&UserCreateCommand)
	UserCommand.AddCommand(&UserPasswordCommand)
	RootCmd.AddCommand(&UserCommand)
}

var FamilyCommand = cobra.Command{
	Use:   "family",
	Short: "Manage families",
}

var FamilyCreateCommand = cobra.Command{
	Use:   "create <name>",
	Short: "Create a family",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		family, err := st.CreateFamily(args[0])
		if err != nil {
			return fmt.Errorf("error creating family: %w", err)
		}
		printJSON(cmd, family)
		return nil
	},
}

var FamilyListCommand = cobra.Command{
	Use:   "list",
	Short: "List all families",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		families, err := st.ListFamilies()
		if err != nil {
			return fmt.Errorf("error listing families: %w", err)
		}
		for _, f := range families {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f.ID, f.Name)
		}
		return nil
	},
}

var UserCommand = cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var UserCreateCommand = cobra.Command{
	Use:   "create <username> <password>",
	Short: "Create a login account in a family",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		familyID, _ := cmd.Flags().GetString("family")
		role, _ := cmd.Flags().GetString("role")
		if role != "admin" && role != "user" {
			return fmt.Errorf("invalid role %q", role)
		}

		family, err := st.GetFamily(familyID)
		if err != nil {
			return fmt.Errorf("error loading family: %w", err)
		}
		if family == nil {
			return fmt.Errorf("family %s does not exist", familyID)
		}
		if err := auth.ValidatePassword(args[1]); err != nil {
			return err
		}
		hash, err := auth.HashPassword(args[1])
		if err != nil {
			return err
		}
		user, err := st.CreateUser(args[0], hash, role, familyID)
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		printJSON(cmd, user)
		return nil
	},
}

var UserPasswordCommand = cobra.Command{
	Use:   "password <username> <new-password>",
	Short: "Reset the password of a login account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := st.GetUserByUsername(args[0])
		if err != nil {
			return fmt.Errorf("user %s not found: %w", args[0], err)
		}
		if err := auth.ValidatePassword(args[1]); err != nil {
			return err
		}
		hash, err := auth.HashPassword(args[1])
		if err != nil {
			return err
		}
		if err := st.UpdateUserPassword(user.ID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", user.Username)
		return nil
	},
}
