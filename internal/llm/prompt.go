package llm

import (
	"fmt"
	"time"

	"github.com/fentz26/planora/internal/goal"
	"github.com/fentz26/planora/internal/models"
)

// BuildPrompt writes the generation instruction for the model tiers. The
// requested JSON shape is exactly what the assembler's tolerant decoder
// accepts, with the parsed duration and category as steering hints.
func BuildPrompt(goalText string, p goal.Profile, today time.Time) string {
	return fmt.Sprintf(`You are a professional project manager. Break down this goal into actionable tasks with realistic timelines and dependencies.

Goal: %q
Target duration: %d days
Goal category: %s

Respond with a single JSON object in exactly this format:
{
  "goal": %q,
  "tasks": [
    {
      "id": 1,
      "title": "Task name",
      "description": "Detailed description",
      "estimated_hours": 8,
      "dependencies": [],
      "due_date": "YYYY-MM-DD",
      "priority": "high|medium|low",
      "category": "Planning|Research|Development|Testing|Marketing"
    }
  ],
  "timeline": {
    "start_date": "YYYY-MM-DD",
    "end_date": "YYYY-MM-DD",
    "milestones": [
      {
        "name": "Milestone name",
        "date": "YYYY-MM-DD",
        "task_ids": [1, 2]
      }
    ]
  }
}

Make tasks specific, actionable, and properly sequenced. Dependencies must reference earlier task ids only. Use today's date as reference: %s`,
		goalText, p.DurationDays, p.Category, goalText, today.Format(models.DateLayout))
}
