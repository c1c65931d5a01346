package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nissyi-gh/teamflow/internal/model"
)

// ListTasks returns the tasks visible to the session user, narrowed by
// filter, in the order the service returns them.
func (c *Client) ListTasks(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, "list tasks", http.MethodGet, "/tasks", filter.Query(), nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id int) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, fmt.Sprintf("get task %d", id), http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, nil, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// CreateTask files a new task.
func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, "create task", http.MethodPost, "/tasks", nil, in, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// UpdateTask replaces the editable fields of a task.
func (c *Client) UpdateTask(ctx context.Context, id int, in model.TaskInput) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, fmt.Sprintf("update task %d", id), http.MethodPut, fmt.Sprintf("/tasks/%d", id), nil, in, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, fmt.Sprintf("delete task %d", id), http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil, nil)
}

// ToggleTask flips a task's completion flag.
func (c *Client) ToggleTask(ctx context.Context, id int) error {
	return c.do(ctx, fmt.Sprintf("toggle task %d", id), http.MethodPost, fmt.Sprintf("/tasks/%d/toggle", id), nil, nil, nil)
}

// ReassignTask hands a task to the user with the given email.
func (c *Client) ReassignTask(ctx context.Context, id int, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.do(ctx, fmt.Sprintf("reassign task %d", id), http.MethodPost, fmt.Sprintf("/tasks/%d/reassign", id), nil, body, nil)
}
