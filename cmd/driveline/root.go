package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driveline/driveline/internal/client"
	"github.com/driveline/driveline/internal/config"
	"github.com/driveline/driveline/internal/events"
)

var (
	cfgFile  string
	logLevel string

	cfg       *config.Config
	logger    *events.Logger
	apiClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "driveline",
	Short: "Personal drive server over a local blob store",
	Long: `Driveline serves a per-user virtual file hierarchy backed by a flat
on-disk blob store, with a global storage quota, reversible deletion and
drift detection between metadata and disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(cfgFile)

		var err error
		cfg, err = loader.Load()
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger = events.NewLogger(cfg.Log.Level, cfg.Log.Format)

		apiClient, err = client.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("initialize client: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if apiClient != nil {
			return apiClient.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
