package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"go.treestore/internal/engine"
)

type lineReader interface {
	Readline() (string, error)
}

var shellCmd = &cobra.Command{
	Use:   "shell <dbname>",
	Short: "Open an interactive session on a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbname := args[0]

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          dbname + "> ",
			HistoryFile:     filepath.Join(cfg.Home, ".treestore_history"),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdout:          cmd.OutOrStdout(),
			Stderr:          cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		return withDB(dbname, func(db *engine.Database) error {
			return startREPL(rl, newShellRoot(db), cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

// newShellRoot is the command tree the shell forwards each line to
func newShellRoot(db *engine.Database) *cobra.Command {
	root := &cobra.Command{
		Use:           "treestore",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Create or overwrite a <key> <value> pair",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSet(cmd, db, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Retrieve value associated with <key>",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGet(cmd, db, args[0])
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Verify the tree structure",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheck(cmd, db)
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print page statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStats(cmd, db)
			},
		},
		newExitCmd(),
	)

	return root
}

// Starts an interactive command session
// Forwards commands to cobra
func startREPL(in lineReader, root *cobra.Command, out, errOut io.Writer) error {
	root.SetOut(out)
	root.SetErr(errOut)

	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		// Get the command typed by the user
		input := strings.TrimSpace(line)

		// Check for blank input
		if input == "" {
			continue
		}

		// Pass the command back to root
		root.SetArgs(strings.Fields(input))

		err = root.Execute()
		if errors.Is(err, errExitShell) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(errOut, "Error:", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
