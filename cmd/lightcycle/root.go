package main

import (
	"fmt"
	"os"

	"github.com/Mshel/lightcycle/internal/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// cfg is loaded before any subcommand runs.
	cfg *config.File
)

var rootCmd = &cobra.Command{
	Use:   "lightcycle",
	Short: "Move engine and arena for two-player lightbike games",
	Long: `Lightcycle picks one move per turn for a two-player lightbike game on a
rectangular grid, combining accessible space, territory and opponent
prediction into a single score per direction.

It also ships a judge server (HTTP and websocket), an arena for playing
strategies against each other and an ssh spectator.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded
		log.SetLevel(cfg.Level())
		log.Debug("Configuration loaded", "path", cfgFile, "time_budget_ms", cfg.Engine.TimeBudgetMS)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}
