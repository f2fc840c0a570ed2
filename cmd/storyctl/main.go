// Package main is the operator CLI for the story service: offline search,
// index maintenance and the worker activity registry.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"admission-stories/internal/common/config"
	"admission-stories/internal/common/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "storyctl",
	Short:         "Operate the admission story service",
	Version:       version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: configs/config.yaml with env overlays)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level for diagnostic output")
}

// loadConfig honours --config, falling back to the service's lookup rules.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newLogger(cmd *cobra.Command) logger.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.NewStructured(level, "console")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
