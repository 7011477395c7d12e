package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planora",
	Short: "Planora - turn a goal into a plan",
	Long: `Planora is a task planning service. Give it a free-text goal and it
produces a structured plan: ordered tasks with effort estimates, priorities,
dependencies and due dates, grouped under milestones.

Generation tries a local Ollama model first, then a hosted model, and falls
back to a built-in rule-based planner, so a plan always comes back.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7467", "API server address")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
