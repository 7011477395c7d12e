package assemble

import (
	"errors"
	"testing"
	"time"

	"github.com/fentz26/planora/internal/goal"
	"github.com/fentz26/planora/internal/llm"
	"github.com/fentz26/planora/internal/models"
	"github.com/fentz26/planora/internal/planner"
)

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func launchProfile(days int) goal.Profile {
	return goal.Profile{Category: goal.CategorySoftwareLaunch, DurationDays: days, Confidence: 0.6}
}

func TestFromModelTextKeepsWellFormedOutput(t *testing.T) {
	raw := "Here is the plan you asked for.\n\n```json\n" + `{
  "tasks": [
    {"id": 1, "title": "Research competitors", "description": "Survey the market", "estimated_hours": 8, "priority": "HIGH", "dependencies": [], "due_date": "2025-03-03"},
    {"id": 2, "title": "Write spec", "estimated_hours": 12, "priority": "medium", "dependencies": [1], "due_date": "2025-03-08"},
    {"id": 3, "title": "Build prototype", "estimated_hours": 20, "priority": "critical", "dependencies": [2], "due_date": "2025-03-14"}
  ],
  "timeline": {
    "start_date": "2025-03-01",
    "end_date": "2025-03-15",
    "milestones": [
      {"name": "Spec ready", "date": "2025-03-08", "task_ids": [1, 2]},
      {"name": "Prototype done", "date": "2025-03-14", "task_ids": [3]}
    ]
  }
}` + "\n```\nGood luck!"

	plan, err := FromModelText("launch an app", launchProfile(14), models.MethodOllama, raw, testStart)
	if err != nil {
		t.Fatalf("FromModelText: %v", err)
	}

	if plan.ID == "" {
		t.Error("plan has no id")
	}
	if plan.Method != models.MethodOllama {
		t.Errorf("method = %q, want %q", plan.Method, models.MethodOllama)
	}
	if plan.StartDate != "2025-03-01" || plan.EndDate != "2025-03-15" {
		t.Errorf("window = %s..%s, want 2025-03-01..2025-03-15", plan.StartDate, plan.EndDate)
	}

	if len(plan.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(plan.Tasks))
	}
	wantPriorities := []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityHigh}
	wantDates := []string{"2025-03-03", "2025-03-08", "2025-03-14"}
	for i, task := range plan.Tasks {
		if task.ID != i+1 {
			t.Errorf("task %d id = %d", i, task.ID)
		}
		if task.Priority != wantPriorities[i] {
			t.Errorf("task %d priority = %q, want %q", task.ID, task.Priority, wantPriorities[i])
		}
		if task.DueDate != wantDates[i] {
			t.Errorf("task %d due = %s, want %s", task.ID, task.DueDate, wantDates[i])
		}
	}
	if plan.Tasks[0].Description != "Survey the market" {
		t.Errorf("description = %q", plan.Tasks[0].Description)
	}

	if len(plan.Milestones) != 2 {
		t.Fatalf("got %d milestones, want 2", len(plan.Milestones))
	}
	if plan.Milestones[0].Name != "Spec ready" || plan.Milestones[1].Name != "Prototype done" {
		t.Errorf("milestone names = %q, %q", plan.Milestones[0].Name, plan.Milestones[1].Name)
	}
	if got := plan.Milestones[0].TaskIDs; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("milestone 1 tasks = %v, want [1 2]", got)
	}

	if err := Validate(plan); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFromModelTextRepairsDependencies(t *testing.T) {
	// Model numbered tasks 10/20/30 with a self reference, a forward
	// reference, and a reference to a task that does not exist.
	raw := `{"tasks": [
		{"id": 10, "title": "A", "dependencies": [10, 99]},
		{"id": 20, "title": "B", "dependencies": [30, 10]},
		{"id": 30, "title": "C", "dependencies": [20, 20]}
	]}`

	plan, err := FromModelText("launch an app", launchProfile(14), models.MethodHosted, raw, testStart)
	if err != nil {
		t.Fatalf("FromModelText: %v", err)
	}

	wantDeps := [][]int{{}, {1}, {2}}
	for i, task := range plan.Tasks {
		if task.ID != i+1 {
			t.Errorf("task %d id = %d, want renumbered %d", i, task.ID, i+1)
		}
		got := task.Dependencies
		want := wantDeps[i]
		if len(got) != len(want) {
			t.Errorf("task %d deps = %v, want %v", task.ID, got, want)
			continue
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("task %d deps = %v, want %v", task.ID, got, want)
			}
		}
	}

	if err := Validate(plan); err != nil {
		t.Errorf("Validate after repair: %v", err)
	}
}

func TestFromModelTextRecomputesMissingDates(t *testing.T) {
	raw := `{"tasks": [
		{"id": 1, "title": "A", "estimated_hours": 4, "due_date": "2025-03-05"},
		{"id": 2, "title": "B", "estimated_hours": 4, "due_date": "not a date"},
		{"id": 3, "title": "C", "estimated_hours": 4}
	]}`

	plan, err := FromModelText("launch an app", launchProfile(14), models.MethodOllama, raw, testStart)
	if err != nil {
		t.Fatalf("FromModelText: %v", err)
	}

	prev := plan.StartDate
	for _, task := range plan.Tasks {
		if _, perr := time.Parse(models.DateLayout, task.DueDate); perr != nil {
			t.Fatalf("task %d due date %q does not parse", task.ID, task.DueDate)
		}
		if task.DueDate <= plan.StartDate || task.DueDate > plan.EndDate {
			t.Errorf("task %d due %s outside window %s..%s", task.ID, task.DueDate, plan.StartDate, plan.EndDate)
		}
		if task.DueDate < prev {
			t.Errorf("task %d due %s before previous %s", task.ID, task.DueDate, prev)
		}
		prev = task.DueDate
	}
	if last := plan.Tasks[len(plan.Tasks)-1].DueDate; last != plan.EndDate {
		t.Errorf("last due = %s, want plan end %s", last, plan.EndDate)
	}
}

func TestFromModelTextClampsOutOfWindowDates(t *testing.T) {
	raw := `{"tasks": [
		{"id": 1, "title": "A", "estimated_hours": 4, "due_date": "2024-01-01"},
		{"id": 2, "title": "B", "estimated_hours": 4, "due_date": "2026-01-01"}
	]}`

	plan, err := FromModelText("launch an app", launchProfile(14), models.MethodOllama, raw, testStart)
	if err != nil {
		t.Fatalf("FromModelText: %v", err)
	}

	if got := plan.Tasks[0].DueDate; got != "2025-03-02" {
		t.Errorf("early date clamped to %s, want 2025-03-02", got)
	}
	if got := plan.Tasks[1].DueDate; got != "2025-03-15" {
		t.Errorf("late date clamped to %s, want 2025-03-15", got)
	}
}

func TestFromModelTextFillsMissingHours(t *testing.T) {
	raw := `{"tasks": [
		{"id": 1, "title": "A"},
		{"id": 2, "title": "B", "estimated_hours": "junk"},
		{"id": 3, "title": "C"}
	]}`

	plan, err := FromModelText("launch an app", launchProfile(14), models.MethodOllama, raw, testStart)
	if err != nil {
		t.Fatalf("FromModelText: %v", err)
	}

	// 14 days at the nominal 6h pace, split across 3 tasks.
	for _, task := range plan.Tasks {
		if task.EstimatedHours != 28 {
			t.Errorf("task %d hours = %v, want 28", task.ID, task.EstimatedHours)
		}
	}
}

func TestFromModelTextResynthesizesBadMilestones(t *testing.T) {
	cases := []struct {
		name       string
		milestones string
	}{
		{"overlapping coverage", `[{"name": "M1", "date": "2025-03-08", "task_ids": [1, 2]}, {"name": "M2", "date": "2025-03-14", "task_ids": [2, 3]}]`},
		{"incomplete coverage", `[{"name": "M1", "date": "2025-03-08", "task_ids": [1]}, {"name": "M2", "date": "2025-03-14", "task_ids": [2]}]`},
		{"unknown task id", `[{"name": "M1", "date": "2025-03-08", "task_ids": [1, 2]}, {"name": "M2", "date": "2025-03-14", "task_ids": [7]}]`},
		{"unparseable date", `[{"name": "M1", "date": "soon", "task_ids": [1, 2, 3]}]`},
		{"decreasing dates", `[{"name": "M1", "date": "2025-03-14", "task_ids": [1, 2]}, {"name": "M2", "date": "2025-03-03", "task_ids": [3]}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := `{"tasks": [
				{"id": 1, "title": "A", "estimated_hours": 4, "due_date": "2025-03-04"},
				{"id": 2, "title": "B", "estimated_hours": 4, "due_date": "2025-03-09", "dependencies": [1]},
				{"id": 3, "title": "C", "estimated_hours": 4, "due_date": "2025-03-14", "dependencies": [2]}
			], "milestones": ` + tc.milestones + `}`

			plan, err := FromModelText("launch an app", launchProfile(14), models.MethodOllama, raw, testStart)
			if err != nil {
				t.Fatalf("FromModelText: %v", err)
			}

			// Synthesized set for a 14-day plan capped at 3 tasks.
			if len(plan.Milestones) != 3 {
				t.Fatalf("got %d milestones, want 3 synthesized", len(plan.Milestones))
			}
			if plan.Milestones[0].Name != "Planning & Setup Complete" {
				t.Errorf("milestone 1 name = %q, want synthesized name", plan.Milestones[0].Name)
			}
			if err := Validate(plan); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestFromModelTextAcceptsLegacyKeys(t *testing.T) {
	raw := `{"tasks": [
		{"id": 1, "title": "A", "estimated_hours": 4, "deadline": "2025-03-05"},
		{"id": 2, "title": "B", "estimated_hours": 4, "deadline": "2025-03-10"}
	], "milestones": [
		{"name": "Done", "target_date": "2025-03-10", "tasks_completed": [1, 2]}
	]}`

	plan, err := FromModelText("launch an app", launchProfile(14), models.MethodOllama, raw, testStart)
	if err != nil {
		t.Fatalf("FromModelText: %v", err)
	}

	if plan.Tasks[0].DueDate != "2025-03-05" {
		t.Errorf("deadline key ignored, due = %s", plan.Tasks[0].DueDate)
	}
	if len(plan.Milestones) != 1 || len(plan.Milestones[0].TaskIDs) != 2 {
		t.Fatalf("milestones = %+v, want single milestone covering both tasks", plan.Milestones)
	}
}

func TestFromModelTextErrors(t *testing.T) {
	_, err := FromModelText("goal", launchProfile(14), models.MethodOllama, "I cannot help with that.", testStart)
	if !errors.Is(err, llm.ErrNoJSON) {
		t.Errorf("plain prose: err = %v, want ErrNoJSON", err)
	}

	_, err = FromModelText("goal", launchProfile(14), models.MethodOllama, "```json\n{\"tasks\": []}\n```", testStart)
	if !errors.Is(err, ErrNoTasks) {
		t.Errorf("empty tasks: err = %v, want ErrNoTasks", err)
	}
}

func TestFromTasksPackagesFallbackOutput(t *testing.T) {
	p := launchProfile(14)
	tasks := planner.Build("launch an app", p, testStart)
	milestones := planner.Milestones(tasks, p.DurationDays)

	plan := FromTasks("launch an app", p, models.MethodFallback, tasks, milestones, testStart)

	if plan.ID == "" {
		t.Error("plan has no id")
	}
	if plan.Method != models.MethodFallback {
		t.Errorf("method = %q", plan.Method)
	}
	if plan.Category != goal.CategorySoftwareLaunch || plan.DurationDays != 14 {
		t.Errorf("profile fields not carried: %s/%d", plan.Category, plan.DurationDays)
	}
	if err := Validate(plan); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	other := FromTasks("launch an app", p, models.MethodFallback, tasks, milestones, testStart)
	if other.ID == plan.ID {
		t.Error("two plans share an id")
	}
}

func TestValidateRejectsBrokenPlans(t *testing.T) {
	build := func() *models.Plan {
		p := launchProfile(14)
		tasks := planner.Build("launch an app", p, testStart)
		return FromTasks("launch an app", p, models.MethodFallback, tasks, planner.Milestones(tasks, p.DurationDays), testStart)
	}

	cases := []struct {
		name   string
		mutate func(*models.Plan)
	}{
		{"duplicate task id", func(p *models.Plan) { p.Tasks[1].ID = p.Tasks[0].ID }},
		{"unknown dependency", func(p *models.Plan) { p.Tasks[1].Dependencies = []int{99} }},
		{"forward dependency", func(p *models.Plan) { p.Tasks[0].Dependencies = []int{p.Tasks[1].ID} }},
		{"bad due date", func(p *models.Plan) { p.Tasks[0].DueDate = "yesterday" }},
		{"uncovered task", func(p *models.Plan) {
			ids := p.Milestones[0].TaskIDs
			p.Milestones[0].TaskIDs = ids[:len(ids)-1]
		}},
		{"double-covered task", func(p *models.Plan) {
			p.Milestones[1].TaskIDs = append(p.Milestones[1].TaskIDs, p.Milestones[0].TaskIDs[0])
		}},
		{"no milestones", func(p *models.Plan) { p.Milestones = nil }},
		{"empty id", func(p *models.Plan) { p.ID = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := build()
			if err := Validate(plan); err != nil {
				t.Fatalf("baseline plan invalid: %v", err)
			}
			tc.mutate(plan)
			if err := Validate(plan); err == nil {
				t.Error("Validate accepted a broken plan")
			}
		})
	}
}
