// Package models defines the core domain types for Planora.
package models

import (
	"strings"
	"time"
)

// DateLayout is the wire format for task due dates and milestone targets.
const DateLayout = "2006-01-02"

// Priority represents the urgency of a task within a plan.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Method identifies which generation tier produced a plan.
type Method string

const (
	MethodOllama   Method = "ollama"
	MethodHosted   Method = "hosted"
	MethodFallback Method = "fallback"
)

// Task represents one unit of work inside a plan. Dependencies reference
// task IDs earlier in the plan's task sequence, never the task itself.
type Task struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	EstimatedHours float64  `json:"estimated_hours"`
	Priority       Priority `json:"priority"`
	Dependencies   []int    `json:"dependencies"`
	DueDate        string   `json:"due_date"` // YYYY-MM-DD
	Category       string   `json:"category,omitempty"`
}

// Milestone groups a contiguous slice of a plan's tasks. Together the
// milestones of a plan cover every task exactly once.
type Milestone struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	TargetDate string `json:"target_date"` // YYYY-MM-DD
	TaskIDs    []int  `json:"task_ids"`
}

// Attempt records the outcome of one generation tier during plan creation.
type Attempt struct {
	Tier      string `json:"tier"`
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Metadata carries observability details about how a plan was generated.
type Metadata struct {
	GeneratedInMS int64     `json:"generated_in_ms"`
	Attempts      []Attempt `json:"attempts,omitempty"`
}

// Plan is the complete output of one goal-generation request. Plans are
// write-once: regeneration produces a new plan with a new ID.
type Plan struct {
	ID           string      `json:"id"`
	Goal         string      `json:"goal"`
	Category     string      `json:"category"`
	DurationDays int         `json:"duration_days"`
	Method       Method      `json:"method"`
	StartDate    string      `json:"start_date"` // YYYY-MM-DD
	EndDate      string      `json:"end_date"`   // YYYY-MM-DD
	Tasks        []Task      `json:"tasks"`
	Milestones   []Milestone `json:"milestones"`
	Metadata     Metadata    `json:"metadata"`
	CreatedAt    time.Time   `json:"created_at"`
}

// PlanSummary is the compact listing row for stored plans.
type PlanSummary struct {
	ID           string    `json:"id"`
	Goal         string    `json:"goal"`
	Category     string    `json:"category"`
	Method       Method    `json:"method"`
	DurationDays int       `json:"duration_days"`
	TaskCount    int       `json:"task_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// TierStatus is one entry of the provider availability snapshot served by
// the llm-status endpoint.
type TierStatus struct {
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	Detail    string    `json:"detail,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// AttemptRecord is a persisted generation attempt for audit purposes.
type AttemptRecord struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id,omitempty"`
	GoalHash  string    `json:"goal_hash"`
	Tier      string    `json:"tier"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizePriority maps free-form priority strings from model output onto
// the canonical enumeration. Unknown values become medium.
func NormalizePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical", "urgent":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}
