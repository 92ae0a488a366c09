package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.treestore/internal/engine"
)

var checkCmd = &cobra.Command{
	Use:   "check <dbname>",
	Short: "Verify the tree structure and print page statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(args[0], func(db *engine.Database) error {
			return runCheck(cmd, db)
		})
	},
}

func runCheck(cmd *cobra.Command, db *engine.Database) error {
	if err := db.Check(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "OK")
	return runStats(cmd, db)
}

func runStats(cmd *cobra.Command, db *engine.Database) error {
	st, err := db.Stats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "root page:      %d\n", st.Root)
	fmt.Fprintf(out, "freelist page:  %d\n", st.FreelistPage)
	fmt.Fprintf(out, "max page:       %d\n", st.MaxPage)
	fmt.Fprintf(out, "released pages: %d\n", st.ReleasedPages)
	fmt.Fprintf(out, "depth:          %d\n", st.Depth)
	fmt.Fprintf(out, "nodes:          %d (%d leaves)\n", st.Nodes, st.Leaves)
	fmt.Fprintf(out, "items:          %d\n", st.Items)
	fmt.Fprintf(out, "underpopulated: %d\n", st.Underpopulated)
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
