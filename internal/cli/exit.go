package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var errExitShell = errors.New("exit")

func newExitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "exit",
		Aliases: []string{"quit"},
		Short:   "Close the database and leave the shell",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errExitShell
		},
	}
}
