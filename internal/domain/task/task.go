// Package task defines the Task domain entity.
package task

import (
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// Status represents the current state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Priority bounds (inclusive).
const (
	MinPriority = 1
	MaxPriority = 10
)

// Task represents a unit of work within a project. AgentID is a weak
// reference: the task outlives its executor, so deleting the agent
// nulls the field instead of deleting the row.
type Task struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	AgentID      string         `json:"agent_id,omitempty"`
	ParentTaskID string         `json:"parent_task_id,omitempty"`
	Title        string         `json:"title"`
	Status       Status         `json:"status"`
	Priority     int            `json:"priority"`
	Progress     int            `json:"progress"`
	Result       map[string]any `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a new task.
type CreateRequest struct {
	ProjectID    string         `json:"project_id"`
	AgentID      string         `json:"agent_id,omitempty"`
	ParentTaskID string         `json:"parent_task_id,omitempty"`
	Title        string         `json:"title"`
	Priority     int            `json:"priority"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPaused, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ValidateCreateRequest checks a create request before it reaches storage.
func ValidateCreateRequest(req *CreateRequest) error {
	if req.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if req.Priority < MinPriority || req.Priority > MaxPriority {
		return fmt.Errorf("priority must be between %d and %d: %w", MinPriority, MaxPriority, domain.ErrValidation)
	}
	return nil
}

// ValidateProgress checks a progress value is within [0,100].
func ValidateProgress(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("progress must be between 0 and 100: %w", domain.ErrValidation)
	}
	return nil
}
