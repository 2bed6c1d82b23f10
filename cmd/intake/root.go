package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/intake/internal/config"
	"github.com/aretw0/intake/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Intake is a conversational data-collection engine",
	Long:  `Intake collects a structured profile through a guided conversation, confirms it with the user, and generates a summary for downstream systems.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Local development convenience; a missing .env is fine.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
