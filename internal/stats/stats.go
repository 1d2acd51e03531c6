// Package stats derives aggregate counts from task and project collections.
// Nothing here is stored; callers recompute after every mutation.
package stats

import (
	"time"

	"github.com/tgienger/taskflow/internal/models"
)

// TaskStats summarises a task collection
type TaskStats struct {
	Total      int `json:"totalTasks"`
	Completed  int `json:"completedTasks"`
	Pending    int `json:"pendingTasks"`
	InProgress int `json:"inProgressTasks"`
	Overdue    int `json:"overdueTasks"`
}

// Tasks counts tasks by status and overdue state at now
func Tasks(tasks []models.Task, now time.Time) TaskStats {
	s := TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			s.Completed++
		case models.StatusInProgress:
			s.InProgress++
		default:
			s.Pending++
		}
		if t.Overdue(now) {
			s.Overdue++
		}
	}
	return s
}

// CompletionRate returns completed/total as a percentage, 0 for an empty set
func CompletionRate(s TaskStats) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) * 100 / float64(s.Total)
}

// ByPriority counts open (not completed) tasks per priority
func ByPriority(tasks []models.Task) map[models.Priority]int {
	out := make(map[models.Priority]int, len(models.Priorities))
	for _, p := range models.Priorities {
		out[p] = 0
	}
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			continue
		}
		out[t.Priority]++
	}
	return out
}

// ProjectStats summarises a project collection
type ProjectStats struct {
	Total     int `json:"totalProjects"`
	Active    int `json:"activeProjects"`
	Completed int `json:"completedProjects"`
	OnHold    int `json:"onHoldProjects"`
}

// Projects counts projects by status. Unknown statuses count as active.
func Projects(projects []models.Project) ProjectStats {
	s := ProjectStats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case models.ProjectCompleted:
			s.Completed++
		case models.ProjectOnHold:
			s.OnHold++
		default:
			s.Active++
		}
	}
	return s
}
