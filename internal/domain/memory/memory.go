// Package memory defines the per-agent key/value memory entity.
//
// Unlike context entries, expiration here is opt-in: there is no default
// TTL and the retention sweep never touches this table.
package memory

import (
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// Memory is one agent-scoped key/value record, unique per
// (project_id, agent_id, memory_key).
type Memory struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	AgentID     string         `json:"agent_id"`
	MemoryKey   string         `json:"memory_key"`
	MemoryType  string         `json:"memory_type"`
	MemoryValue map[string]any `json:"memory_value"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	AccessCount int64          `json:"access_count"`
	AccessedAt  *time.Time     `json:"accessed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PutRequest upserts a memory by (project_id, agent_id, memory_key).
type PutRequest struct {
	ProjectID   string         `json:"project_id"`
	AgentID     string         `json:"agent_id"`
	MemoryKey   string         `json:"memory_key"`
	MemoryType  string         `json:"memory_type"`
	MemoryValue map[string]any `json:"memory_value"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
}

// ValidatePutRequest checks a put request before it reaches storage.
func ValidatePutRequest(req *PutRequest) error {
	if req.AgentID == "" {
		return fmt.Errorf("agent_id is required: %w", domain.ErrValidation)
	}
	if req.MemoryKey == "" {
		return fmt.Errorf("memory_key is required: %w", domain.ErrValidation)
	}
	if req.MemoryType == "" {
		return fmt.Errorf("memory_type is required: %w", domain.ErrValidation)
	}
	return nil
}
