package views

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/route"
	"github.com/tgienger/taskflow/internal/stats"
)

func TestDashboardLoadsSummary(t *testing.T) {
	b := newFakeBackend(
		models.Task{ID: "1", Title: "Ship", Status: models.StatusCompleted},
		models.Task{ID: "2", Title: "Plan", Status: models.StatusPending, DueDate: models.NewDate(2025, 1, 1)},
		models.Task{ID: "3", Title: "Build", Status: models.StatusInProgress},
	)
	b.projStats = stats.ProjectStats{Total: 4, Active: 3, Completed: 1}
	b.invitations = []models.Invitation{pendingInvite()}

	v := NewDashboardView(testDeps(t, b), false)
	msgs := drain(v, v.Init())
	assert.Empty(t, toasts(msgs))

	s := v.Stats()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 4, v.data.projects.Total)
	assert.Equal(t, 1, v.data.invitations)

	q := b.lastQuery()
	assert.Equal(t, "mine", q.Get("scope"))
	assert.Equal(t, "100", q.Get("limit"))
	assert.Contains(t, v.View(), "33%")
}

func TestDashboardLoadFailure(t *testing.T) {
	b := newFakeBackend()
	b.listFn = func(url.Values) (api.TaskPage, error) {
		return api.TaskPage{}, &api.Error{Status: 500, Message: "Database unavailable"}
	}
	v := NewDashboardView(testDeps(t, b), true)
	msgs := drain(v, v.Init())

	require.Len(t, toasts(msgs), 1)
	assert.Equal(t, "Database unavailable", toasts(msgs)[0].Text)
	assert.Error(t, v.err)
	assert.Equal(t, route.Analytics, v.Route())
}

func TestDashboardNewTaskShortcut(t *testing.T) {
	v := NewDashboardView(testDeps(t, newFakeBackend()), false)
	assert.Equal(t, []string{route.MyTasks}, navigations(press(v, "n")))
}
