// Package agent defines the Agent domain entity.
package agent

import (
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// Status represents the current state of an agent.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Agent is a worker registered against a project. AgentID is the logical
// name, unique per project; ID is the row identifier.
type Agent struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	AgentType     string         `json:"agent_type"`
	AgentID       string         `json:"agent_id"`
	Status        Status         `json:"status"`
	LastHeartbeat *time.Time     `json:"last_heartbeat,omitempty"`
	Config        map[string]any `json:"config,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CreateRequest holds the fields needed to register a new agent.
type CreateRequest struct {
	ProjectID string         `json:"project_id"`
	AgentType string         `json:"agent_type"`
	AgentID   string         `json:"agent_id"`
	Config    map[string]any `json:"config,omitempty"`
}

// ValidStatus reports whether s is a known agent status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusIdle, StatusActive, StatusPaused, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ValidateCreateRequest checks an agent registration before it reaches storage.
func ValidateCreateRequest(req *CreateRequest) error {
	if req.AgentType == "" {
		return fmt.Errorf("agent_type is required: %w", domain.ErrValidation)
	}
	if req.AgentID == "" {
		return fmt.Errorf("agent_id is required: %w", domain.ErrValidation)
	}
	return nil
}
