package service

import (
	"context"
	"fmt"

	"github.com/buildloop/ledger/internal/adapter/ws"
	"github.com/buildloop/ledger/internal/domain"
	"github.com/buildloop/ledger/internal/domain/task"
	"github.com/buildloop/ledger/internal/port/broadcast"
	"github.com/buildloop/ledger/internal/port/database"
)

// TaskService handles task registry logic.
type TaskService struct {
	store database.Store
	hub   broadcast.Broadcaster
}

// NewTaskService creates a new TaskService. hub may be nil when no live
// clients are wired.
func NewTaskService(store database.Store, hub broadcast.Broadcaster) *TaskService {
	return &TaskService{store: store, hub: hub}
}

// List returns all tasks for a project, ordered by priority.
func (s *TaskService) List(ctx context.Context, projectID string) ([]task.Task, error) {
	return s.store.ListTasks(ctx, projectID)
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// Create creates a task after validating the request. Priority defaults
// to the midpoint when the caller omits it.
func (s *TaskService) Create(ctx context.Context, req *task.CreateRequest) (*task.Task, error) {
	if req.Priority == 0 {
		req.Priority = 5
	}
	if err := task.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	return s.store.CreateTask(ctx, *req)
}

// UpdateStatus moves a task along its lifecycle, optionally attaching a
// result payload or error message.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, status task.Status, result map[string]any, errMsg string) error {
	if !task.ValidStatus(status) {
		return fmt.Errorf("unknown task status %q: %w", status, domain.ErrValidation)
	}
	if err := s.store.UpdateTaskStatus(ctx, id, status, result, errMsg); err != nil {
		return err
	}
	s.broadcastProgress(ctx, id)
	return nil
}

// UpdateProgress records task completion percentage.
func (s *TaskService) UpdateProgress(ctx context.Context, id string, progress int) error {
	if err := task.ValidateProgress(progress); err != nil {
		return err
	}
	if err := s.store.UpdateTaskProgress(ctx, id, progress); err != nil {
		return err
	}
	s.broadcastProgress(ctx, id)
	return nil
}

func (s *TaskService) broadcastProgress(ctx context.Context, id string) {
	if s.hub == nil {
		return
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventTaskProgress, ws.TaskProgressEvent{
		TaskID:    t.ID,
		ProjectID: t.ProjectID,
		Status:    string(t.Status),
		Progress:  t.Progress,
	})
}
