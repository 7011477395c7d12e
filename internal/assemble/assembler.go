// Package assemble normalizes generation output from any tier into the
// canonical plan shape and enforces its invariants: dependencies form a
// DAG, milestones partition the task set, and dates never decrease.
package assemble

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fentz26/planora/internal/goal"
	"github.com/fentz26/planora/internal/llm"
	"github.com/fentz26/planora/internal/models"
	"github.com/fentz26/planora/internal/planner"
)

// ErrNoTasks means the model produced parseable JSON with nothing to plan.
var ErrNoTasks = errors.New("model output contains no tasks")

// flexNumber tolerates JSON numbers, numeric strings, and junk. Anything
// unparseable decodes to zero so one sloppy field never sinks the whole
// model response.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(f)
	return nil
}

// rawPlan is the tolerant decode target for model output. Milestones are
// accepted top-level or under timeline, and tasks accept a couple of
// legacy key spellings.
type rawPlan struct {
	Tasks      []rawTask      `json:"tasks"`
	Milestones []rawMilestone `json:"milestones"`
	Timeline   struct {
		StartDate  string         `json:"start_date"`
		EndDate    string         `json:"end_date"`
		Milestones []rawMilestone `json:"milestones"`
	} `json:"timeline"`
}

type rawTask struct {
	ID             flexNumber   `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	EstimatedHours flexNumber   `json:"estimated_hours"`
	Dependencies   []flexNumber `json:"dependencies"`
	DueDate        string       `json:"due_date"`
	Deadline       string       `json:"deadline"`
	Priority       string       `json:"priority"`
	Category       string       `json:"category"`
}

type rawMilestone struct {
	Name           string       `json:"name"`
	Date           string       `json:"date"`
	TargetDate     string       `json:"target_date"`
	TaskIDs        []flexNumber `json:"task_ids"`
	TasksCompleted []flexNumber `json:"tasks_completed"`
}

// FromModelText builds a canonical plan from raw model output. Model
// mistakes are repaired, never surfaced: broken dependency references are
// dropped, missing due dates recomputed, and an unusable milestone set is
// re-synthesized. Only missing or task-free JSON is an error, which the
// selector treats as that tier's failure.
func FromModelText(goalText string, p goal.Profile, method models.Method, raw string, start time.Time) (*models.Plan, error) {
	data, err := llm.ExtractPlanJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("extract plan JSON: %w", err)
	}

	var rp rawPlan
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, fmt.Errorf("decode plan JSON: %w", err)
	}
	if len(rp.Tasks) == 0 {
		return nil, ErrNoTasks
	}

	tasks := normalizeTasks(rp.Tasks, p.DurationDays, start)

	ms := rp.Timeline.Milestones
	if len(ms) == 0 {
		ms = rp.Milestones
	}
	milestones, ok := normalizeMilestones(ms, tasks, start, p.DurationDays)
	if !ok {
		milestones = planner.Milestones(tasks, p.DurationDays)
	}

	return pack(goalText, p, method, tasks, milestones, start), nil
}

// FromTasks packages an already-canonical task and milestone set, which is
// how the fallback tier's output becomes a plan. It cannot fail.
func FromTasks(goalText string, p goal.Profile, method models.Method, tasks []models.Task, milestones []models.Milestone, start time.Time) *models.Plan {
	return pack(goalText, p, method, tasks, milestones, start)
}

// normalizeTasks renumbers tasks 1..n in listed order, fills defaults, and
// repairs the dependency graph. Keeping only references to earlier IDs
// drops self references, unknown IDs, and forward references, which also
// makes cycles impossible.
func normalizeTasks(raw []rawTask, durationDays int, start time.Time) []models.Task {
	newID := make(map[int]int, len(raw))
	for i, rt := range raw {
		if old := int(rt.ID); old > 0 {
			if _, taken := newID[old]; !taken {
				newID[old] = i + 1
			}
		}
	}

	tasks := make([]models.Task, 0, len(raw))
	missingHours := 0
	datesOK := true
	for i, rt := range raw {
		id := i + 1

		title := strings.TrimSpace(rt.Title)
		if title == "" {
			title = fmt.Sprintf("Task %d", id)
		}

		hours := roundHalf(float64(rt.EstimatedHours))
		if hours < 1 {
			hours = 0
			missingHours++
		}

		deps := []int{}
		for _, d := range rt.Dependencies {
			mapped, exists := newID[int(d)]
			if !exists || mapped >= id {
				continue
			}
			deps = append(deps, mapped)
		}
		sort.Ints(deps)
		deps = dedupe(deps)

		due := firstNonEmpty(rt.DueDate, rt.Deadline)
		if _, err := time.Parse(models.DateLayout, due); err != nil {
			due = ""
			datesOK = false
		}

		tasks = append(tasks, models.Task{
			ID:             id,
			Title:          title,
			Description:    strings.TrimSpace(rt.Description),
			EstimatedHours: hours,
			Priority:       models.NormalizePriority(rt.Priority),
			Dependencies:   deps,
			DueDate:        due,
			Category:       strings.TrimSpace(rt.Category),
		})
	}

	if missingHours > 0 {
		even := roundHalf(nominalBudget(durationDays) / float64(len(tasks)))
		if even < 1 {
			even = 1
		}
		for i := range tasks {
			if tasks[i].EstimatedHours == 0 {
				tasks[i].EstimatedHours = even
			}
		}
	}

	if datesOK {
		clampDueDates(tasks, start, durationDays)
	} else {
		planner.DistributeDueDates(tasks, start, durationDays)
	}

	return tasks
}

// normalizeMilestones keeps model-provided milestones only when they form
// a valid partition of the task set with usable, non-decreasing dates.
func normalizeMilestones(raw []rawMilestone, tasks []models.Task, start time.Time, durationDays int) ([]models.Milestone, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	valid := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		valid[t.ID] = true
	}

	minDate := start.AddDate(0, 0, 1).Format(models.DateLayout)
	maxDate := start.AddDate(0, 0, durationDays).Format(models.DateLayout)

	out := make([]models.Milestone, 0, len(raw))
	covered := make(map[int]bool, len(tasks))
	prevDate := ""
	for i, rm := range raw {
		date := firstNonEmpty(rm.Date, rm.TargetDate)
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return nil, false
		}
		if date < minDate {
			date = minDate
		}
		if date > maxDate {
			date = maxDate
		}
		if date < prevDate {
			return nil, false
		}
		prevDate = date

		src := rm.TaskIDs
		if len(src) == 0 {
			src = rm.TasksCompleted
		}
		ids := []int{}
		for _, n := range src {
			id := int(n)
			if !valid[id] || covered[id] {
				return nil, false
			}
			covered[id] = true
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return nil, false
		}
		sort.Ints(ids)

		name := strings.TrimSpace(rm.Name)
		if name == "" {
			name = fmt.Sprintf("Milestone %d", i+1)
		}

		out = append(out, models.Milestone{
			ID:         i + 1,
			Name:       name,
			TargetDate: date,
			TaskIDs:    ids,
		})
	}

	if len(covered) != len(tasks) {
		return nil, false
	}
	return out, true
}

// clampDueDates forces parsed model dates into the plan window and keeps
// them non-decreasing in task order.
func clampDueDates(tasks []models.Task, start time.Time, durationDays int) {
	minDate := start.AddDate(0, 0, 1).Format(models.DateLayout)
	maxDate := start.AddDate(0, 0, durationDays).Format(models.DateLayout)

	prev := minDate
	for i := range tasks {
		d := tasks[i].DueDate
		if d < minDate {
			d = minDate
		}
		if d > maxDate {
			d = maxDate
		}
		if d < prev {
			d = prev
		}
		tasks[i].DueDate = d
		prev = d
	}
}

func pack(goalText string, p goal.Profile, method models.Method, tasks []models.Task, milestones []models.Milestone, start time.Time) *models.Plan {
	if tasks == nil {
		tasks = []models.Task{}
	}
	if milestones == nil {
		milestones = []models.Milestone{}
	}
	for i := range tasks {
		if tasks[i].Dependencies == nil {
			tasks[i].Dependencies = []int{}
		}
	}

	return &models.Plan{
		ID:           uuid.NewString(),
		Goal:         goalText,
		Category:     p.Category,
		DurationDays: p.DurationDays,
		Method:       method,
		StartDate:    start.Format(models.DateLayout),
		EndDate:      start.AddDate(0, 0, p.DurationDays).Format(models.DateLayout),
		Tasks:        tasks,
		Milestones:   milestones,
		CreatedAt:    start,
	}
}

// Validate re-checks every plan invariant. The selector runs it as the
// acceptance gate on model-tier output.
func Validate(p *models.Plan) error {
	if p == nil {
		return errors.New("plan is nil")
	}
	if p.ID == "" {
		return errors.New("plan has no id")
	}
	if len(p.Tasks) == 0 {
		return errors.New("plan has no tasks")
	}

	pos := make(map[int]int, len(p.Tasks))
	for i, t := range p.Tasks {
		if _, dup := pos[t.ID]; dup {
			return fmt.Errorf("duplicate task id %d", t.ID)
		}
		pos[t.ID] = i
	}

	prevDue := ""
	for i, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			j, exists := pos[dep]
			if !exists {
				return fmt.Errorf("task %d references unknown dependency %d", t.ID, dep)
			}
			if j >= i {
				return fmt.Errorf("task %d depends on %d which is not an earlier task", t.ID, dep)
			}
		}
		if _, err := time.Parse(models.DateLayout, t.DueDate); err != nil {
			return fmt.Errorf("task %d has invalid due date %q", t.ID, t.DueDate)
		}
		if t.DueDate < prevDue {
			return fmt.Errorf("task %d due date %s precedes previous task's", t.ID, t.DueDate)
		}
		if p.EndDate != "" && t.DueDate > p.EndDate {
			return fmt.Errorf("task %d due date %s is past the plan end %s", t.ID, t.DueDate, p.EndDate)
		}
		prevDue = t.DueDate
	}

	if len(p.Milestones) == 0 {
		return errors.New("plan has no milestones")
	}
	covered := make(map[int]bool, len(p.Tasks))
	prevTarget := ""
	for _, m := range p.Milestones {
		if len(m.TaskIDs) == 0 {
			return fmt.Errorf("milestone %d covers no tasks", m.ID)
		}
		for _, id := range m.TaskIDs {
			if _, exists := pos[id]; !exists {
				return fmt.Errorf("milestone %d references unknown task %d", m.ID, id)
			}
			if covered[id] {
				return fmt.Errorf("task %d appears in more than one milestone", id)
			}
			covered[id] = true
		}
		if _, err := time.Parse(models.DateLayout, m.TargetDate); err != nil {
			return fmt.Errorf("milestone %d has invalid target date %q", m.ID, m.TargetDate)
		}
		if m.TargetDate < prevTarget {
			return fmt.Errorf("milestone %d target date %s precedes previous milestone's", m.ID, m.TargetDate)
		}
		prevTarget = m.TargetDate
	}
	if len(covered) != len(p.Tasks) {
		return fmt.Errorf("milestones cover %d tasks, plan has %d", len(covered), len(p.Tasks))
	}

	return nil
}

func nominalBudget(durationDays int) float64 {
	if durationDays < 1 {
		durationDays = 1
	}
	return float64(durationDays) * 6
}

func roundHalf(h float64) float64 {
	return math.Round(h*2) / 2
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return strings.TrimSpace(b)
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	var prev int
	for i, v := range sorted {
		if i > 0 && v == prev {
			continue
		}
		out = append(out, v)
		prev = v
	}
	return out
}
