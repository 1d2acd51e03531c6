package api

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/stats"
)

// ProjectInput is the writable part of a project
type ProjectInput struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Status      models.ProjectStatus `json:"status,omitempty"`
	DueDate     models.Date          `json:"dueDate"`
}

// ListProjects returns one page of projects and the total count
func (c *Client) ListProjects(ctx context.Context, q url.Values) ([]models.Project, int, error) {
	var out struct {
		Projects []models.Project `json:"projects"`
		Total    int              `json:"total"`
	}
	if err := c.do(ctx, "GET", "/projects", q, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Projects, out.Total, nil
}

// CreateProject stores a new project
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*models.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "POST", "/projects", nil, in, &raw); err != nil {
		return nil, err
	}
	p := &models.Project{}
	if err := entity(raw, "project", p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProject replaces a project's writable fields
func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (*models.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "PUT", "/projects/"+url.PathEscape(id), nil, in, &raw); err != nil {
		return nil, err
	}
	p := &models.Project{}
	if err := entity(raw, "project", p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes a project
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/projects/"+url.PathEscape(id), nil, nil, nil)
}

// ProjectStatistics returns the server-side project aggregate
func (c *Client) ProjectStatistics(ctx context.Context) (stats.ProjectStats, error) {
	var out struct {
		Statistics stats.ProjectStats `json:"statistics"`
	}
	err := c.do(ctx, "GET", "/projects/statistics", nil, nil, &out)
	return out.Statistics, err
}
