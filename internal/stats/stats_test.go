package stats

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/taskflow/internal/models"
)

var june1 = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestOverdueScenario(t *testing.T) {
	tasks := []models.Task{{ID: "1", Status: models.StatusPending, DueDate: models.NewDate(2025, time.January, 1)}}

	s := Tasks(tasks, june1)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.Pending)

	tasks[0].Status = models.StatusCompleted
	s = Tasks(tasks, june1)
	assert.Equal(t, 0, s.Overdue)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 0, s.Pending)
}

func TestEmpty(t *testing.T) {
	s := Tasks(nil, june1)
	assert.Equal(t, TaskStats{}, s)
	assert.Zero(t, CompletionRate(s))
}

// Random mutation sequences must keep the partition and overdue identities.
func TestConsistencyAcrossMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var tasks []models.Task
	next := 0

	for step := 0; step < 500; step++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(tasks) == 0:
			next++
			tasks = append(tasks, models.Task{
				ID:      strconv.Itoa(next),
				Status:  models.Statuses[rng.Intn(3)],
				DueDate: models.NewDate(2025, time.Month(1+rng.Intn(12)), 1+rng.Intn(28)),
			})
		case op == 1:
			i := rng.Intn(len(tasks))
			tasks = append(tasks[:i], tasks[i+1:]...)
		case op == 2:
			i := rng.Intn(len(tasks))
			tasks[i].Status = tasks[i].Status.Next()
		default:
			i := rng.Intn(len(tasks))
			tasks[i].DueDate = models.NewDate(2025, time.Month(1+rng.Intn(12)), 1)
		}

		s := Tasks(tasks, june1)
		assert.Equal(t, len(tasks), s.Total)
		assert.Equal(t, s.Total, s.Completed+s.Pending+s.InProgress)

		overdue := 0
		for _, task := range tasks {
			if task.DueDate.Before(june1) && task.Status != models.StatusCompleted {
				overdue++
			}
		}
		assert.Equal(t, overdue, s.Overdue)
	}
}

func TestCompletionRate(t *testing.T) {
	assert.InDelta(t, 25.0, CompletionRate(TaskStats{Total: 4, Completed: 1}), 0.001)
}

func TestByPriorityIgnoresCompleted(t *testing.T) {
	got := ByPriority([]models.Task{
		{Priority: models.PriorityHigh, Status: models.StatusPending},
		{Priority: models.PriorityHigh, Status: models.StatusCompleted},
		{Priority: models.PriorityLow, Status: models.StatusInProgress},
	})
	assert.Equal(t, map[models.Priority]int{
		models.PriorityLow:    1,
		models.PriorityMedium: 0,
		models.PriorityHigh:   1,
	}, got)
}

func TestProjects(t *testing.T) {
	s := Projects([]models.Project{
		{Status: models.ProjectActive},
		{Status: models.ProjectCompleted},
		{Status: models.ProjectOnHold},
		{Status: ""},
	})
	assert.Equal(t, ProjectStats{Total: 4, Active: 2, Completed: 1, OnHold: 1}, s)
}
