// Package main provides a command-line client for the campaign orchestrator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "marketing-cli",
	Short: "Talk to the campaign orchestrator",
	Long: `Command-line client for the campaign orchestrator.

Available subcommands:
  chat     - Interactive chat over the WebSocket endpoint
  campaign - Generate a campaign through the REST API`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8000", "Server host:port")
	rootCmd.AddCommand(chatCmd, campaignCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
