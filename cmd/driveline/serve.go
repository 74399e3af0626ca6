package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/driveline/driveline/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long:  `Serve exposes the drive API over HTTP until interrupted.`,
	Example: `  driveline serve
  driveline serve --config driveline.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := transport.NewServer(cfg.HTTP, apiClient.Drive, apiClient.Auth, logger)
	return server.Run(ctx)
}
