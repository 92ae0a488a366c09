package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant <username> <dbname>",
	Args:  cobra.ExactArgs(2),
	Short: "Grant user access to db",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, dbname := args[0], args[1]

		a, err := newAuthenticator()
		if err != nil {
			return err
		}

		if err := a.Grant(username, dbname); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Granted %s access to %s\n", username, dbname)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grantCmd)
}
