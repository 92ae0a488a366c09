package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.treestore/internal/auth"
)

func newAuthenticator() (*auth.Authenticator, error) {
	fs, err := auth.NewFileStore(cfg.UserFile)
	if err != nil {
		return nil, err
	}
	return auth.NewAuthenticator(fs), nil
}

// Later let's give a -p option to include password in cmdline - if ommited we will
// prompt for password with protection
var userCreateCmd = &cobra.Command{
	Use:   "create-user <username> <password> <role>",
	Args:  cobra.ExactArgs(3),
	Short: "Create a new treestore user (role: superuser, user or guest)",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password, roleStr := args[0], args[1], args[2]

		role, err := auth.ParseRole(roleStr)
		if err != nil {
			return err
		}

		a, err := newAuthenticator()
		if err != nil {
			return err
		}

		if err := a.CreateUser(username, password, role); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s created\n", username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCreateCmd)
}
