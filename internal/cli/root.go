package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.treestore/internal/config"
)

var (
	homeFlag   string
	configFlag string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "treestore",
	Short:         "treestore - single file B-tree key value store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(homeFlag, configFlag)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "treestore home directory (default $TREESTORE_HOME or ~/.local/share/treestore)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default <home>/config.yaml)")
}
