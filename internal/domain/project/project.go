// Package project defines the Project domain entity.
package project

import (
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// Status represents the current state of a project.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// MaxLoop is the highest build loop a project can be in.
const MaxLoop = 3

// Project is the root entity all ledger records hang off. Deleting a
// project cascades to its agents, tasks, context entries, memory, audit
// runs and export logs.
type Project struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       Status          `json:"status"`
	CurrentLoop  int             `json:"current_loop"`
	CurrentPhase string          `json:"current_phase"`
	Features     map[string]bool `json:"features,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a new project.
type CreateRequest struct {
	Name     string          `json:"name"`
	Features map[string]bool `json:"features,omitempty"`
}

// StatusUpdate moves a project along its lifecycle.
type StatusUpdate struct {
	Status       Status `json:"status"`
	CurrentLoop  int    `json:"current_loop,omitempty"`
	CurrentPhase string `json:"current_phase,omitempty"`
}

// ValidStatus reports whether s is a known project status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPaused, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ValidateCreateRequest checks a create request before it reaches storage.
func ValidateCreateRequest(req *CreateRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(req.Name) > 255 {
		return fmt.Errorf("name exceeds 255 characters: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateStatusUpdate checks a status update before it reaches storage.
func ValidateStatusUpdate(u StatusUpdate) error {
	if !ValidStatus(u.Status) {
		return fmt.Errorf("unknown status %q: %w", u.Status, domain.ErrValidation)
	}
	if u.CurrentLoop != 0 && (u.CurrentLoop < 1 || u.CurrentLoop > MaxLoop) {
		return fmt.Errorf("current_loop must be between 1 and %d: %w", MaxLoop, domain.ErrValidation)
	}
	return nil
}
