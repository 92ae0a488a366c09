package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke <username> <dbname>",
	Args:  cobra.ExactArgs(2),
	Short: "Revoke user access to a database",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, dbname := args[0], args[1]

		a, err := newAuthenticator()
		if err != nil {
			return err
		}

		if err := a.Revoke(username, dbname); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s access to %s\n", username, dbname)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)
}
