package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/gridpipe/internal/config"
	"github.com/dshills/gridpipe/internal/logging"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "gridpipe",
		Short:         "Event pipeline for Akai APC mini grid controllers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "configuration file path")

	rootCmd.AddCommand(newMonitorCommand(&configFlag))
	rootCmd.AddCommand(newPaintCommand(&configFlag))
	rootCmd.AddCommand(newDevicesCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfig resolves the config path (flag, then the user config dir)
// and builds the configuration and logger from it.
func loadConfig(configFlag string) (config.Config, *slog.Logger, string, error) {
	path := configFlag
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "gridpipe", "gridpipe.toml")
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, path, err
	}
	return cfg, logging.NewFromConfig(cfg.Logging), path, nil
}
