package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.treestore/internal/engine"
)

var setCmd = &cobra.Command{
	Use:   "set <dbname> <key> <value>",
	Short: "Create or overwrite a <key> <value> pair",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(args[0], func(db *engine.Database) error {
			return runSet(cmd, db, args[1], args[2])
		})
	},
}

func runSet(cmd *cobra.Command, db *engine.Database, key, value string) error {
	if err := db.Set(key, []byte(value)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set\n", key)
	return nil
}

func init() {
	rootCmd.AddCommand(setCmd)
}
