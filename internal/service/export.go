package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/buildloop/ledger/internal/adapter/otel"
	"github.com/buildloop/ledger/internal/adapter/ws"
	"github.com/buildloop/ledger/internal/domain/export"
	"github.com/buildloop/ledger/internal/port/broadcast"
	"github.com/buildloop/ledger/internal/port/database"
	"github.com/buildloop/ledger/internal/port/messagequeue"
)

// ExportService handles the append-only export ledger.
type ExportService struct {
	store   database.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
}

// NewExportService creates a new ExportService. queue, hub and metrics
// may be nil.
func NewExportService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *otel.Metrics) *ExportService {
	return &ExportService{store: store, queue: queue, hub: hub, metrics: metrics}
}

// Record appends one delivery attempt. Attempts are never updated; a
// retry is a new record.
func (s *ExportService) Record(ctx context.Context, req *export.RecordRequest) (*export.Log, error) {
	if err := export.ValidateRecordRequest(req); err != nil {
		return nil, err
	}

	l, err := s.store.RecordExport(ctx, *req)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ExportsRecorded.Add(ctx, 1)
	}

	event := ws.ExportRecordedEvent{
		ExportID:   l.ID,
		ProjectID:  l.ProjectID,
		ExportType: string(l.ExportType),
		Status:     string(l.Status),
	}
	if s.queue != nil {
		data, err := json.Marshal(event)
		if err == nil {
			if pubErr := s.queue.Publish(ctx, messagequeue.SubjectExportRecorded, data); pubErr != nil {
				slog.Error("failed to publish export event", "export_id", l.ID, "error", pubErr)
			}
		}
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventExportRecorded, event)
	}

	return l, nil
}

// List returns a project's export history, newest first.
func (s *ExportService) List(ctx context.Context, projectID string) ([]export.Log, error) {
	return s.store.ListExports(ctx, projectID)
}
