package tui

import "github.com/fentz26/planora/internal/models"

// PlanItem is a summary of a plan for the list view
type PlanItem struct {
	ID        string
	Goal      string
	Category  string
	Method    string
	TaskCount int
	Created   string
}

// PlanResult pairs a freshly generated plan with its persistence outcome
type PlanResult struct {
	Plan       models.Plan
	Saved      bool
	StoreError string
}

// TierRow is one provider row in the status view
type TierRow struct {
	Name      string
	Available bool
	Detail    string
}

// LLMStatus is the tier availability snapshot for the status view
type LLMStatus struct {
	CurrentMethod   string
	Tiers           []TierRow
	OllamaInstalled bool
}
