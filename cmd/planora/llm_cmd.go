package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/planora/internal/models"
	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the generation tiers",
}

var llmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show availability of the generation tiers",
	RunE:  runLLMStatus,
}

var llmRefresh bool

func init() {
	llmCmd.AddCommand(llmStatusCmd)

	llmStatusCmd.Flags().BoolVar(&llmRefresh, "refresh", false, "Re-probe the tiers before reporting")
}

func runLLMStatus(cmd *cobra.Command, args []string) error {
	url := "/api/llm-status"
	if llmRefresh {
		url += "?refresh=true"
	}

	resp, err := apiGet(url)
	if err != nil {
		return err
	}

	var result struct {
		CurrentMethod   string              `json:"current_method"`
		Tiers           []models.TierStatus `json:"tiers"`
		OllamaInstalled bool                `json:"ollama_installed"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Current method:   %s\n", result.CurrentMethod)
	fmt.Printf("Ollama installed: %t\n\n", result.OllamaInstalled)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIER\tAVAILABLE\tDETAIL")
	for _, t := range result.Tiers {
		fmt.Fprintf(w, "%s\t%t\t%s\n", t.Name, t.Available, t.Detail)
	}
	w.Flush()
	return nil
}
