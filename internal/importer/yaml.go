package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/nissyi-gh/teamflow/internal/model"
	"gopkg.in/yaml.v3"
)

// Creator files one task on the remote store.
type Creator interface {
	Create(ctx context.Context, in model.TaskInput) (model.Task, error)
}

// YAMLTask represents a single task in the YAML input.
type YAMLTask struct {
	Title         string `yaml:"title"`
	Description   string `yaml:"description,omitempty"`
	DueDate       string `yaml:"due_date,omitempty"`
	Priority      string `yaml:"priority,omitempty"`
	AssigneeEmail string `yaml:"assignee_email,omitempty"`
}

// YAMLInput represents the root structure of the YAML input.
type YAMLInput struct {
	Tasks []YAMLTask `yaml:"tasks"`
}

// Parse decodes and checks a YAML document without creating anything.
func Parse(yamlStr string) ([]model.TaskInput, error) {
	var input YAMLInput
	if err := yaml.Unmarshal([]byte(yamlStr), &input); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}

	if len(input.Tasks) == 0 {
		return nil, fmt.Errorf("no tasks found in YAML")
	}

	inputs := make([]model.TaskInput, 0, len(input.Tasks))
	for i, yt := range input.Tasks {
		in, err := toInput(yt)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func toInput(yt YAMLTask) (model.TaskInput, error) {
	if yt.Title == "" {
		return model.TaskInput{}, fmt.Errorf("task title is required")
	}
	priority, err := model.ParsePriority(yt.Priority)
	if err != nil {
		return model.TaskInput{}, fmt.Errorf("%q: %w", yt.Title, err)
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	if yt.DueDate != "" {
		if _, err := model.ParseDueDate(yt.DueDate, time.Local); err != nil {
			return model.TaskInput{}, fmt.Errorf("%q: %w", yt.Title, err)
		}
	}
	return model.TaskInput{
		Title:         yt.Title,
		Description:   yt.Description,
		DueDate:       yt.DueDate,
		Priority:      priority,
		AssigneeEmail: yt.AssigneeEmail,
	}, nil
}

// Import parses a YAML string and creates its tasks in order. Nothing is
// created if any entry is invalid. Returns the number of tasks created,
// which is less than the total when the store rejects one.
func Import(ctx context.Context, c Creator, yamlStr string) (int, error) {
	inputs, err := Parse(yamlStr)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, in := range inputs {
		if _, err := c.Create(ctx, in); err != nil {
			return count, fmt.Errorf("create task %q: %w", in.Title, err)
		}
		count++
	}
	return count, nil
}
