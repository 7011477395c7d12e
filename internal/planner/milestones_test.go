package planner

import (
	"testing"
)

func TestMilestoneCount(t *testing.T) {
	tests := []struct {
		days int
		want int
	}{
		{3, 2},
		{7, 2},
		{8, 3},
		{14, 3},
		{30, 3},
		{31, 4},
		{45, 4},
	}
	for _, tt := range tests {
		if got := MilestoneCount(tt.days); got != tt.want {
			t.Errorf("MilestoneCount(%d) = %d, want %d", tt.days, got, tt.want)
		}
	}
}

func TestMilestones_PartitionProperty(t *testing.T) {
	for _, cat := range Categories() {
		for _, days := range []int{3, 14, 45} {
			tasks := Build("test goal", profileFor(cat, days), testStart)
			ms := Milestones(tasks, days)

			want := MilestoneCount(days)
			if want > len(tasks) {
				want = len(tasks)
			}
			if len(ms) != want {
				t.Errorf("%s/%dd: got %d milestones, want %d", cat, days, len(ms), want)
			}

			// Every task in exactly one milestone; union equals the task set.
			covered := make(map[int]int)
			for _, m := range ms {
				if len(m.TaskIDs) == 0 {
					t.Errorf("%s/%dd: milestone %d covers no tasks", cat, days, m.ID)
				}
				for _, id := range m.TaskIDs {
					covered[id]++
				}
			}
			for _, task := range tasks {
				if covered[task.ID] != 1 {
					t.Errorf("%s/%dd: task %d covered %d times, want exactly once", cat, days, task.ID, covered[task.ID])
				}
			}
			if len(covered) != len(tasks) {
				t.Errorf("%s/%dd: milestones cover %d ids, want %d", cat, days, len(covered), len(tasks))
			}
		}
	}
}

func TestMilestones_TargetDatesNonDecreasing(t *testing.T) {
	for _, days := range []int{3, 14, 45} {
		tasks := Build("launch the app", profileFor("software-launch", days), testStart)
		ms := Milestones(tasks, days)

		prev := ""
		for _, m := range ms {
			if m.TargetDate < prev {
				t.Errorf("%dd: milestone %d target %s before %s", days, m.ID, m.TargetDate, prev)
			}
			prev = m.TargetDate
		}

		// The final milestone lands on the final task's due date.
		last := ms[len(ms)-1]
		if last.TargetDate != tasks[len(tasks)-1].DueDate {
			t.Errorf("%dd: final milestone target %s, want %s", days, last.TargetDate, tasks[len(tasks)-1].DueDate)
		}
	}
}

func TestMilestones_ContiguousSlices(t *testing.T) {
	tasks := Build("launch the app", profileFor("software-launch", 45), testStart)
	ms := Milestones(tasks, 45)

	next := 1
	for _, m := range ms {
		for _, id := range m.TaskIDs {
			if id != next {
				t.Fatalf("milestone slices not contiguous: saw %d, want %d", id, next)
			}
			next++
		}
	}
	if next != len(tasks)+1 {
		t.Errorf("milestones stopped at id %d, want %d tasks covered", next-1, len(tasks))
	}
}

func TestMilestones_EmptyTasks(t *testing.T) {
	if got := Milestones(nil, 14); got != nil {
		t.Errorf("expected nil milestones for no tasks, got %v", got)
	}
}
