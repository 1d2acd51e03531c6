package api

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/tgienger/taskflow/internal/models"
)

// TaskInput is the writable part of a task
type TaskInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Priority    models.Priority `json:"priority"`
	Status      models.Status   `json:"status"`
	DueDate     models.Date     `json:"dueDate"`
	Assignee    string          `json:"assignee,omitempty"`
	ProjectID   string          `json:"projectId,omitempty"`
}

// InputOf copies the writable fields of t
func InputOf(t models.Task) TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     t.DueDate,
		Assignee:    t.Assignee,
		ProjectID:   t.ProjectID,
	}
}

// TaskPage is one page of a task listing
type TaskPage struct {
	Tasks []models.Task `json:"tasks"`
	Total int           `json:"total"`
}

// ListTasks runs a filtered, paginated task query
func (c *Client) ListTasks(ctx context.Context, q url.Values) (TaskPage, error) {
	var out TaskPage
	err := c.do(ctx, "GET", "/tasks", q, nil, &out)
	return out, err
}

// GetTask fetches one task
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return c.taskCall(ctx, "GET", "/tasks/"+url.PathEscape(id), nil)
}

// CreateTask stores a new task
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*models.Task, error) {
	return c.taskCall(ctx, "POST", "/tasks", in)
}

// UpdateTask replaces a task's writable fields
func (c *Client) UpdateTask(ctx context.Context, id string, in TaskInput) (*models.Task, error) {
	return c.taskCall(ctx, "PUT", "/tasks/"+url.PathEscape(id), in)
}

// UpdateTaskStatus moves a task through the workflow
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, s models.Status) error {
	return c.do(ctx, "PATCH", "/tasks/"+url.PathEscape(id)+"/status", nil, map[string]models.Status{"status": s}, nil)
}

// DeleteTask removes a task
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/tasks/"+url.PathEscape(id), nil, nil, nil)
}

// BulkDeleteTasks removes several tasks in one call. Atomicity is up to
// the server; on error the caller cannot tell which ids were removed.
func (c *Client) BulkDeleteTasks(ctx context.Context, ids []string) error {
	return c.do(ctx, "POST", "/tasks/bulk-delete", nil, map[string][]string{"taskIds": ids}, nil)
}

// BulkUpdateStatus sets the status of several tasks in one call
func (c *Client) BulkUpdateStatus(ctx context.Context, ids []string, s models.Status) error {
	body := struct {
		TaskIDs []string      `json:"taskIds"`
		Status  models.Status `json:"status"`
	}{ids, s}
	return c.do(ctx, "PATCH", "/tasks/bulk-update", nil, body, nil)
}

// ListComments returns a task's comments as the server orders them
func (c *Client) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	var out struct {
		Comments []models.Comment `json:"comments"`
	}
	if err := c.do(ctx, "GET", "/tasks/"+url.PathEscape(taskID)+"/comments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// AddComment posts a comment and returns the stored record
func (c *Client) AddComment(ctx context.Context, taskID, text string) (*models.Comment, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "POST", "/tasks/"+url.PathEscape(taskID)+"/comments", nil, map[string]string{"text": text}, &raw); err != nil {
		return nil, err
	}
	cm := &models.Comment{}
	if err := entity(raw, "comment", cm); err != nil {
		return nil, err
	}
	return cm, nil
}

func (c *Client) taskCall(ctx context.Context, method, path string, body any) (*models.Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, nil, body, &raw); err != nil {
		return nil, err
	}
	t := &models.Task{}
	if err := entity(raw, "task", t); err != nil {
		return nil, err
	}
	return t, nil
}
