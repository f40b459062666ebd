package service

import (
	"context"

	"github.com/buildloop/ledger/internal/adapter/ws"
	"github.com/buildloop/ledger/internal/domain/agentlog"
	"github.com/buildloop/ledger/internal/port/broadcast"
	"github.com/buildloop/ledger/internal/port/database"
)

// Log list limits. Callers asking for more than the cap get the cap.
const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// LogService handles the append-only agent log.
type LogService struct {
	store database.Store
	hub   broadcast.Broadcaster
}

// NewLogService creates a new LogService. hub may be nil.
func NewLogService(store database.Store, hub broadcast.Broadcaster) *LogService {
	return &LogService{store: store, hub: hub}
}

// Append writes one log entry and pushes it to live clients.
func (s *LogService) Append(ctx context.Context, req *agentlog.AppendRequest) (*agentlog.Entry, error) {
	if err := agentlog.ValidateAppendRequest(req); err != nil {
		return nil, err
	}

	e, err := s.store.AppendLog(ctx, *req)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventLogAppended, ws.LogAppendedEvent{
			LogID:     e.ID,
			ProjectID: e.ProjectID,
			Level:     string(e.Level),
			Message:   e.Message,
		})
	}
	return e, nil
}

// List returns the most recent entries for a project, newest first. An
// empty level matches all levels.
func (s *LogService) List(ctx context.Context, projectID string, level agentlog.Level, limit int) ([]agentlog.Entry, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	return s.store.ListLogs(ctx, projectID, level, limit)
}
