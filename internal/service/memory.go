package service

import (
	"context"
	"time"

	"github.com/buildloop/ledger/internal/domain/memory"
	"github.com/buildloop/ledger/internal/port/database"
)

// MemoryService handles agent-scoped key/value memory. Expiry here is
// advisory only: the retention sweep covers context entries, not this
// table, so expired memories linger until overwritten.
type MemoryService struct {
	store database.Store
}

// NewMemoryService creates a new MemoryService.
func NewMemoryService(store database.Store) *MemoryService {
	return &MemoryService{store: store}
}

// Put upserts a memory by (project_id, agent_id, memory_key).
func (s *MemoryService) Put(ctx context.Context, req *memory.PutRequest) (*memory.Memory, error) {
	if err := memory.ValidatePutRequest(req); err != nil {
		return nil, err
	}
	return s.store.PutMemory(ctx, *req)
}

// Get reads one memory, recording the access.
func (s *MemoryService) Get(ctx context.Context, id string) (*memory.Memory, error) {
	return s.store.GetMemory(ctx, id, time.Now().UTC())
}

// List returns an agent's memories without bumping counters.
func (s *MemoryService) List(ctx context.Context, projectID, agentID string) ([]memory.Memory, error) {
	return s.store.ListMemories(ctx, projectID, agentID)
}
