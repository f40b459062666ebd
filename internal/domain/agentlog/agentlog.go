// Package agentlog defines the append-only agent log record.
package agentlog

import (
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Entry is one row of the agent log. The ID is a monotonically
// increasing integer so the log can be read back in write order. Agent
// and task references are weak: the log survives deletion of either.
type Entry struct {
	ID        int64          `json:"id"`
	ProjectID string         `json:"project_id"`
	AgentID   string         `json:"agent_id,omitempty"`
	TaskID    string         `json:"task_id,omitempty"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AppendRequest holds the fields needed to append a log entry.
type AppendRequest struct {
	ProjectID string         `json:"project_id"`
	AgentID   string         `json:"agent_id,omitempty"`
	TaskID    string         `json:"task_id,omitempty"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ValidLevel reports whether l is a known log level.
func ValidLevel(l Level) bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal:
		return true
	}
	return false
}

// ValidateAppendRequest checks an append request before it reaches storage.
func ValidateAppendRequest(req *AppendRequest) error {
	if !ValidLevel(req.Level) {
		return fmt.Errorf("unknown log level %q: %w", req.Level, domain.ErrValidation)
	}
	if req.Message == "" {
		return fmt.Errorf("message is required: %w", domain.ErrValidation)
	}
	return nil
}
