package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go.treestore/internal/logger"
	"go.treestore/internal/metrics"
	"go.treestore/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start treestore server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.OpenFile(cfg.ServerLogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()

		log := logger.NewWithFormat(io.MultiWriter(cmd.ErrOrStderr(), f), cfg.LogLevel(), cfg.Log.Format)
		defer log.Sync()

		srv, err := server.New(cfg, log, metrics.New())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Server started on %s\n", cfg.Addr)
		return srv.Listen(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
