// Package planner implements the rule-based plan generator: category
// templates scaled to the goal duration, with structural dependencies and
// effort-proportional due dates. This tier never fails, which makes it the
// backstop of the provider chain.
package planner

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fentz26/planora/internal/goal"
	"github.com/fentz26/planora/internal/models"
)

// Build generates the full task sequence for a parsed goal. Task IDs are
// 1-based positions; dependencies only ever reference earlier IDs.
func Build(goalText string, p goal.Profile, start time.Time) []models.Task {
	tmpl := templateFor(p.Category)
	stages := stagesFor(tmpl, p.DurationDays)
	repl := strings.NewReplacer("{goal}", goalText, "{subject}", subjectLabel(p.Subject))

	scale := float64(p.DurationDays) / float64(tmpl.BaseDays)

	tasks := make([]models.Task, 0, len(stages))
	prevDeps := []int{}
	for i, st := range stages {
		deps := []int{}
		if i > 0 {
			if st.Parallel {
				// Runs alongside the previous task, so it shares that
				// task's dependency instead of chaining onto it.
				deps = append(deps, prevDeps...)
			} else {
				deps = append(deps, i)
			}
		}

		hours := roundHalf(st.Hours * scale)
		if hours < 1 {
			hours = 1
		}

		pr := st.Priority
		if pr == "" {
			pr = models.PriorityMedium
		}
		if i == 0 || i == len(stages)-1 {
			pr = models.PriorityHigh
		}

		tasks = append(tasks, models.Task{
			ID:             i + 1,
			Title:          repl.Replace(st.Title),
			Description:    repl.Replace(st.Description),
			EstimatedHours: hours,
			Priority:       pr,
			Dependencies:   deps,
			Category:       st.Category,
		})
		prevDeps = deps
	}

	DistributeDueDates(tasks, start, p.DurationDays)
	return tasks
}

// stagesFor applies the duration scaling policy: short goals get a
// condensed sequence, long goals expand stages into their sub-stages.
func stagesFor(t Template, days int) []Stage {
	switch {
	case days < 7:
		return condense(t.Stages, condensedCount(days))
	case days > 30:
		return subdivide(t.Stages)
	default:
		out := make([]Stage, len(t.Stages))
		copy(out, t.Stages)
		return out
	}
}

func condensedCount(days int) int {
	if days <= 4 {
		return 3
	}
	return 4
}

// condense keeps the first and last stage plus the largest interior stages,
// preserving template order. Condensed plans are strictly sequential.
func condense(stages []Stage, n int) []Stage {
	if len(stages) <= n {
		out := make([]Stage, len(stages))
		copy(out, stages)
		for i := range out {
			out[i].Parallel = false
		}
		return out
	}

	interior := make([]int, 0, len(stages)-2)
	for i := 1; i < len(stages)-1; i++ {
		interior = append(interior, i)
	}
	sort.SliceStable(interior, func(a, b int) bool {
		return stages[interior[a]].Hours > stages[interior[b]].Hours
	})
	keep := interior[:n-2]
	sort.Ints(keep)

	out := make([]Stage, 0, n)
	out = append(out, stages[0])
	for _, idx := range keep {
		out = append(out, stages[idx])
	}
	out = append(out, stages[len(stages)-1])
	for i := range out {
		out[i].Parallel = false
	}
	return out
}

// subdivide expands stages that declare sub-stages. The first sub-stage
// inherits the parent's parallel flag; the rest run sequentially.
func subdivide(stages []Stage) []Stage {
	out := make([]Stage, 0, len(stages))
	for _, st := range stages {
		if len(st.SubStages) == 0 {
			out = append(out, st)
			continue
		}
		for j, sub := range st.SubStages {
			s := sub
			if s.Category == "" {
				s.Category = st.Category
			}
			s.Parallel = st.Parallel && j == 0
			out = append(out, s)
		}
	}
	return out
}

// DistributeDueDates assigns each task a due date at its cumulative share
// of total estimated effort across the duration. The final task lands on
// the end date and dates never decrease. The slice is modified in place.
func DistributeDueDates(tasks []models.Task, start time.Time, durationDays int) {
	if len(tasks) == 0 {
		return
	}
	if durationDays < 1 {
		durationDays = 1
	}

	total := 0.0
	for _, t := range tasks {
		total += t.EstimatedHours
	}

	cum := 0.0
	prevOffset := 1
	for i := range tasks {
		cum += tasks[i].EstimatedHours
		offset := durationDays
		if total > 0 && i < len(tasks)-1 {
			offset = int(math.Round(float64(durationDays) * cum / total))
		}
		if offset < 1 {
			offset = 1
		}
		if offset < prevOffset {
			offset = prevOffset
		}
		if offset > durationDays {
			offset = durationDays
		}
		tasks[i].DueDate = start.AddDate(0, 0, offset).Format(models.DateLayout)
		prevOffset = offset
	}
}

func roundHalf(h float64) float64 {
	return math.Round(h*2) / 2
}

func subjectLabel(subject string) string {
	if subject == "" {
		return "the subject"
	}
	words := strings.Fields(subject)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
