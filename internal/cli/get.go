package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.treestore/internal/engine"
)

var getCmd = &cobra.Command{
	Use:   "get <dbname> <key>",
	Short: "Retrieve value associated with <key>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(args[0], func(db *engine.Database) error {
			return runGet(cmd, db, args[1])
		})
	},
}

func runGet(cmd *cobra.Command, db *engine.Database, key string) error {
	val, err := db.Get(key)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(val))
	return nil
}

func init() {
	rootCmd.AddCommand(getCmd)
}
