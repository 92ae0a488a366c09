package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.treestore/internal/engine"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <dbname>",
	Args:  cobra.ExactArgs(1),
	Short: "Delete an existing database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbname := args[0]

		if err := engine.Drop(dbname, cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database %s deleted\n", dbname)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
