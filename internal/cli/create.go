package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.treestore/internal/engine"
)

var createCmd = &cobra.Command{
	Use:   "create <dbname>",
	Args:  cobra.ExactArgs(1),
	Short: "Create a new database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbname := args[0]

		if err := engine.Create(dbname, cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database %s created\n", dbname)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
