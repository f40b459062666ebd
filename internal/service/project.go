// Package service implements business logic on top of ports.
package service

import (
	"context"

	"github.com/buildloop/ledger/internal/domain/project"
	"github.com/buildloop/ledger/internal/port/database"
)

// ProjectService handles project registry logic.
type ProjectService struct {
	store database.Store
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store database.Store) *ProjectService {
	return &ProjectService{store: store}
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]project.Project, error) {
	return s.store.ListProjects(ctx)
}

// Get returns a project by ID.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Create creates a new project after validating the request.
func (s *ProjectService) Create(ctx context.Context, req *project.CreateRequest) (*project.Project, error) {
	if err := project.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	return s.store.CreateProject(ctx, *req)
}

// UpdateStatus moves a project along its lifecycle. Loop and phase are
// only overwritten when the update carries them.
func (s *ProjectService) UpdateStatus(ctx context.Context, id string, u project.StatusUpdate) (*project.Project, error) {
	if err := project.ValidateStatusUpdate(u); err != nil {
		return nil, err
	}
	return s.store.UpdateProjectStatus(ctx, id, u)
}

// Delete removes a project. Everything recorded against it (agents,
// tasks, logs, context entries, memory, audit runs, exports) goes with
// it in cascade.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteProject(ctx, id)
}
