package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventAuditCompleted = "audit.completed"
	EventExportRecorded = "export.recorded"
	EventRetentionSwept = "retention.swept"
	EventLogAppended    = "log.appended"
	EventTaskProgress   = "task.progress"
)

// AuditCompletedEvent is broadcast when an audit run reaches a terminal state.
type AuditCompletedEvent struct {
	AuditRunID   string  `json:"audit_run_id"`
	ProjectID    string  `json:"project_id"`
	AuditType    string  `json:"audit_type"`
	Status       string  `json:"status"`
	OverallScore float64 `json:"overall_score"`
}

// ExportRecordedEvent is broadcast when an export attempt is logged.
type ExportRecordedEvent struct {
	ExportID   string `json:"export_id"`
	ProjectID  string `json:"project_id"`
	ExportType string `json:"export_type"`
	Status     string `json:"status"`
}

// RetentionSweptEvent is broadcast after each retention sweep pass.
type RetentionSweptEvent struct {
	Deleted int64  `json:"deleted"`
	SweptAt string `json:"swept_at"`
}

// LogAppendedEvent is broadcast when an agent log entry is written.
type LogAppendedEvent struct {
	LogID     int64  `json:"log_id"`
	ProjectID string `json:"project_id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// TaskProgressEvent is broadcast when a task's progress or status changes.
type TaskProgressEvent struct {
	TaskID    string `json:"task_id"`
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
