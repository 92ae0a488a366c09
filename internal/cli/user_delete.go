package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userDelCmd = &cobra.Command{
	Use:   "delete-user <username>",
	Args:  cobra.ExactArgs(1),
	Short: "Delete a treestore user",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		a, err := newAuthenticator()
		if err != nil {
			return err
		}

		if err := a.DeleteUser(username); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userDelCmd)
}
