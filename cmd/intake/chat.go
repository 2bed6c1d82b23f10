package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/intake/internal/cli"
	"github.com/aretw0/intake/internal/presentation/tui"
	"github.com/aretw0/intake/pkg/runner"
)

// chatCmd represents the interactive conversation command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive intake conversation",
	Long:  `Starts the intake engine in interactive mode. Type /exit to leave, /new to start over with a fresh session, /restart to wipe and restart the current one.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		build, err := cli.NewBuild(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing intake: %v\n", err)
			os.Exit(1)
		}
		defer build.Close()

		r := runner.NewRunner()
		r.Logger = logger

		// Rich rendering only when attached to a terminal.
		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner()
			r.Renderer = tui.NewRenderer()
		}
		if build.Offline {
			fmt.Println("(offline mode: answers are parsed with built-in heuristics)")
		}

		sessionID, _ := cmd.Flags().GetString("session")
		if _, err := r.Run(cmd.Context(), build.Workflow, sessionID); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Resume a specific session id")

	// Make 'chat' the default if no command is provided.
	rootCmd.Run = chatCmd.Run
}
