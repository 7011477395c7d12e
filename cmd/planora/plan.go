package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/planora/internal/models"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create and inspect plans",
}

var planNewCmd = &cobra.Command{
	Use:   "new [goal...]",
	Short: "Generate a plan from a free-text goal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlanNew,
}

var planGetCmd = &cobra.Command{
	Use:   "get [plan-id]",
	Short: "Show a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanGet,
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plans",
	RunE:  runPlanList,
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete [plan-id]",
	Short: "Delete a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanDelete,
}

var (
	planRawJSON bool
	planLimit   int
)

func init() {
	planCmd.AddCommand(planNewCmd, planGetCmd, planListCmd, planDeleteCmd)

	planNewCmd.Flags().BoolVar(&planRawJSON, "json", false, "Print the raw JSON response")
	planGetCmd.Flags().BoolVar(&planRawJSON, "json", false, "Print the raw JSON response")

	planListCmd.Flags().IntVar(&planLimit, "limit", 20, "Maximum number of plans to list")
}

// planResponse matches the create endpoint's response: the plan itself plus
// persistence status.
type planResponse struct {
	models.Plan
	Saved      bool   `json:"saved"`
	StoreError string `json:"store_error,omitempty"`
}

func runPlanNew(cmd *cobra.Command, args []string) error {
	goalText := strings.Join(args, " ")

	body := map[string]string{
		"goal": goalText,
	}

	resp, err := apiPost("/api/plan", body)
	if err != nil {
		return err
	}

	if planRawJSON {
		return printRawJSON(resp)
	}

	var result planResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Created plan %s\n\n", result.ID)
	printPlan(&result.Plan)

	if len(result.Metadata.Attempts) > 0 {
		fmt.Println("\nGeneration attempts:")
		for i, a := range result.Metadata.Attempts {
			outcome := "ok"
			if !a.OK {
				outcome = "failed: " + a.Reason
			}
			fmt.Printf("  %d. %-8s %s (%dms)\n", i+1, a.Tier, outcome, a.ElapsedMS)
		}
	}

	if !result.Saved {
		msg := "plan was not saved"
		if result.StoreError != "" {
			msg += ": " + result.StoreError
		}
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}

	return nil
}

func runPlanGet(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/plan/" + args[0])
	if err != nil {
		return err
	}

	if planRawJSON {
		return printRawJSON(resp)
	}

	var plan models.Plan
	if err := json.Unmarshal(resp, &plan); err != nil {
		return err
	}

	fmt.Printf("Plan %s\n\n", plan.ID)
	printPlan(&plan)
	return nil
}

func runPlanList(cmd *cobra.Command, args []string) error {
	url := "/api/plans"
	if planLimit > 0 {
		url += fmt.Sprintf("?limit=%d", planLimit)
	}

	resp, err := apiGet(url)
	if err != nil {
		return err
	}

	var result struct {
		Plans []models.PlanSummary `json:"plans"`
		Count int                  `json:"count"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	if len(result.Plans) == 0 {
		fmt.Println("No plans found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGOAL\tCATEGORY\tMETHOD\tTASKS\tCREATED")
	for _, p := range result.Plans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			truncateID(p.ID), truncate(p.Goal, 40), p.Category, p.Method, p.TaskCount,
			p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	return nil
}

func runPlanDelete(cmd *cobra.Command, args []string) error {
	if _, err := apiDelete("/api/plan/" + args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted plan %s\n", args[0])
	return nil
}

func printPlan(p *models.Plan) {
	fmt.Printf("Goal:     %s\n", p.Goal)
	fmt.Printf("Category: %s\n", p.Category)
	fmt.Printf("Method:   %s\n", p.Method)
	fmt.Printf("Window:   %s to %s (%d days)\n", p.StartDate, p.EndDate, p.DurationDays)

	fmt.Println("\nTasks:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tEFFORT\tPRIORITY\tDUE\tDEPENDS ON")
	for _, t := range p.Tasks {
		fmt.Fprintf(w, "%d\t%s\t%sh\t%s\t%s\t%s\n",
			t.ID, truncate(t.Title, 48), formatHours(t.EstimatedHours), t.Priority, t.DueDate,
			formatDeps(t.Dependencies))
	}
	w.Flush()

	if len(p.Milestones) > 0 {
		fmt.Println("\nMilestones:")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTARGET\tTASKS")
		for _, m := range p.Milestones {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.TargetDate, formatIDs(m.TaskIDs))
		}
		w.Flush()
	}
}

func printRawJSON(data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	fmt.Println(buf.String())
	return nil
}

// --- Helpers ---

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func formatHours(h float64) string {
	if h == float64(int(h)) {
		return strconv.Itoa(int(h))
	}
	return strconv.FormatFloat(h, 'f', 1, 64)
}

func formatDeps(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	return formatIDs(ids)
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
