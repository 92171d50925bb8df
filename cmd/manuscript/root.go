package main

import (
	"fmt"
	"log/slog"

	"github.com/siherrmann/manuscript/config"
	"github.com/siherrmann/manuscript/helper"
	"github.com/spf13/cobra"
)

// app holds the state shared by all subcommands of one invocation
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
	log        *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "manuscript",
		Short:         "Catalog the characters, locations and organizations of a long-form manuscript",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.cfg, err = config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = helper.NewLogger(cmd.ErrOrStderr(), level)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "manuscript.toml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(
		newIngestCmd(a),
		newCatalogCmd(a),
		newSearchCmd(a),
		newShowCmd(a),
	)

	return rootCmd
}
