package service

import (
	"context"
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
	"github.com/buildloop/ledger/internal/domain/agent"
	"github.com/buildloop/ledger/internal/port/database"
)

// AgentService handles agent registry logic.
type AgentService struct {
	store database.Store
}

// NewAgentService creates a new AgentService.
func NewAgentService(store database.Store) *AgentService {
	return &AgentService{store: store}
}

// List returns all agents registered against a project.
func (s *AgentService) List(ctx context.Context, projectID string) ([]agent.Agent, error) {
	return s.store.ListAgents(ctx, projectID)
}

// Get returns an agent by row ID.
func (s *AgentService) Get(ctx context.Context, id string) (*agent.Agent, error) {
	return s.store.GetAgent(ctx, id)
}

// Register creates a new agent under a project. The logical agent_id
// must be unique within the project.
func (s *AgentService) Register(ctx context.Context, req *agent.CreateRequest) (*agent.Agent, error) {
	if err := agent.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	return s.store.CreateAgent(ctx, *req)
}

// UpdateStatus moves an agent along its lifecycle.
func (s *AgentService) UpdateStatus(ctx context.Context, id string, status agent.Status) error {
	if !agent.ValidStatus(status) {
		return fmt.Errorf("unknown agent status %q: %w", status, domain.ErrValidation)
	}
	return s.store.UpdateAgentStatus(ctx, id, status)
}

// Heartbeat records that the agent is alive.
func (s *AgentService) Heartbeat(ctx context.Context, id string) error {
	return s.store.TouchAgentHeartbeat(ctx, id, time.Now().UTC())
}

// Delete removes an agent. Its memories go with it; its tasks and log
// entries survive with the agent reference nulled.
func (s *AgentService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteAgent(ctx, id)
}
