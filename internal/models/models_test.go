package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"pending":     StatusPending,
		"In Progress": StatusInProgress,
		"in-progress": StatusInProgress,
		"in_progress": StatusInProgress,
		"COMPLETED":   StatusCompleted,
	} {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("archived")
	assert.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" High ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}

func TestStatusNextCycles(t *testing.T) {
	assert.Equal(t, StatusInProgress, StatusPending.Next())
	assert.Equal(t, StatusCompleted, StatusInProgress.Next())
	assert.Equal(t, StatusPending, StatusCompleted.Next())
}

func TestTaskDecodeRejectsUnknownStatus(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":"1","title":"x","status":"blocked","priority":"low"}`), &task)
	assert.Error(t, err)
}

func TestTaskDecodeDates(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":"1","title":"x","status":"in progress","priority":"medium","dueDate":"2025-01-01"}`), &task)
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.January, 1), task.DueDate)
	assert.Equal(t, StatusInProgress, task.Status)

	err = json.Unmarshal([]byte(`{"id":"2","title":"y","status":"pending","priority":"low","dueDate":"2025-03-04T10:00:00Z"}`), &task)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", task.DueDate.String())
}

func TestDateRoundTripsAsBareDate(t *testing.T) {
	b, err := json.Marshal(struct {
		Due Date `json:"due"`
	}{NewDate(2025, time.June, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2025-06-01"}`, string(b))
}

func TestOverdue(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	task := Task{Status: StatusPending, DueDate: NewDate(2025, time.January, 1)}
	assert.True(t, task.Overdue(now))

	task.Status = StatusCompleted
	assert.False(t, task.Overdue(now))

	assert.False(t, Task{Status: StatusPending}.Overdue(now), "no due date is never overdue")
}
