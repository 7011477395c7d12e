package planner

import "github.com/fentz26/planora/internal/models"

var milestoneNames = [4]string{
	"Planning & Setup Complete",
	"Core Execution Complete",
	"Review & Polish Complete",
	"Final Delivery",
}

// MilestoneCount returns how many milestones a plan of the given duration
// gets: 2 for a week or less, 3 up to a month, 4 beyond that.
func MilestoneCount(durationDays int) int {
	switch {
	case durationDays <= 7:
		return 2
	case durationDays <= 30:
		return 3
	default:
		return 4
	}
}

func namesFor(n int) []string {
	switch n {
	case 1:
		return []string{milestoneNames[3]}
	case 2:
		return []string{milestoneNames[1], milestoneNames[3]}
	case 3:
		return []string{milestoneNames[0], milestoneNames[1], milestoneNames[3]}
	default:
		return milestoneNames[:]
	}
}

// Milestones partitions the task sequence into contiguous effort-weighted
// slices. Every task lands in exactly one milestone, each milestone's
// target date is its last task's due date, and dates are non-decreasing
// because due dates are.
func Milestones(tasks []models.Task, durationDays int) []models.Milestone {
	if len(tasks) == 0 {
		return nil
	}

	n := MilestoneCount(durationDays)
	if n > len(tasks) {
		n = len(tasks)
	}
	names := namesFor(n)

	total := 0.0
	for _, t := range tasks {
		total += t.EstimatedHours
	}

	dueByID := make(map[int]string, len(tasks))
	for _, t := range tasks {
		dueByID[t.ID] = t.DueDate
	}

	out := make([]models.Milestone, 0, n)
	taskIdx := 0
	cum := 0.0
	for m := 0; m < n; m++ {
		milestonesLeft := n - m - 1
		target := total * float64(m+1) / float64(n)

		ids := []int{}
		for taskIdx < len(tasks) {
			unassigned := len(tasks) - taskIdx
			// later milestones each need at least one task
			if len(ids) > 0 && unassigned <= milestonesLeft {
				break
			}
			ids = append(ids, tasks[taskIdx].ID)
			cum += tasks[taskIdx].EstimatedHours
			taskIdx++
			if milestonesLeft > 0 && cum+1e-9 >= target && len(tasks)-taskIdx >= milestonesLeft {
				break
			}
		}

		out = append(out, models.Milestone{
			ID:         m + 1,
			Name:       names[m],
			TargetDate: dueByID[ids[len(ids)-1]],
			TaskIDs:    ids,
		})
	}

	return out
}
