// Package cli implements the clickquest command-line interface using Cobra.
// Each subcommand opens the local database and calls the engine directly.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	homeDir  string
	playerID string
)

var rootCmd = &cobra.Command{
	Use:   "clickquest",
	Short: "clickquest: level up your goals one click at a time",
	Long: `clickquest turns daily progress into a game.
Every click on a goal earns level points, unlocks achievements and skins,
and keeps your streak alive. Skip a week and the points start to decay.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Data directory (default $CLICKQUEST_HOME or ~/.clickquest)")
	rootCmd.PersistentFlags().StringVarP(&playerID, "player", "p", defaultPlayer(), "Player ID")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultPlayer() string {
	if p := os.Getenv("CLICKQUEST_PLAYER"); p != "" {
		return p
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
