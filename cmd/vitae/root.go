package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/vitae/internal/config"
	"github.com/aretw0/vitae/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vitae",
	Short: "Vitae tracks changes to a two-column CV",
	Long: `Vitae assigns stable IDs to every node of a CV document, diffs an edited
copy against its baseline and serves editing sessions over HTTP or MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", "", "Directory containing the CV documents (overrides config)")
	rootCmd.PersistentFlags().String("config", "vitae.yaml", "Path to the config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// loadConfig merges the config file, the environment and the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dir") {
		cfg.Content.Dir, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewFromConfig(cfg.Log.Format, cfg.Log.Level)
}
