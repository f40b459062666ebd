package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain/memory"
)

const memoryCols = `id, project_id, agent_id, memory_key, memory_type, memory_value,
	expires_at, access_count, accessed_at, created_at`

// PutMemory upserts a memory by (project_id, agent_id, memory_key).
// Expiry here is literal: whatever the caller passes (including nil to
// clear it) is stored. The retention sweep never touches this table.
func (s *Store) PutMemory(ctx context.Context, req memory.PutRequest) (*memory.Memory, error) {
	valueJSON, err := json.Marshal(orEmptyMap(req.MemoryValue))
	if err != nil {
		return nil, fmt.Errorf("marshal memory value: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO agent_memory (project_id, agent_id, memory_key, memory_type, memory_value, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (project_id, agent_id, memory_key) DO UPDATE
		 SET memory_type = EXCLUDED.memory_type,
		     memory_value = EXCLUDED.memory_value,
		     expires_at = EXCLUDED.expires_at
		 RETURNING `+memoryCols,
		req.ProjectID, req.AgentID, req.MemoryKey, req.MemoryType, valueJSON, req.ExpiresAt)

	m, err := scanMemory(row)
	if err != nil {
		return nil, fmt.Errorf("put memory %s: %w", req.MemoryKey, constraintErr(err))
	}
	return &m, nil
}

// GetMemory reads one memory and records the access in the same
// statement, mirroring the context-entry read path.
func (s *Store) GetMemory(ctx context.Context, id string, now time.Time) (*memory.Memory, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE agent_memory
		 SET access_count = access_count + 1, accessed_at = $2
		 WHERE id = $1
		 RETURNING `+memoryCols,
		id, now)

	m, err := scanMemory(row)
	if err != nil {
		return nil, notFoundWrap(err, "get memory %s", id)
	}
	return &m, nil
}

// ListMemories scans an agent's memories without bumping counters.
func (s *Store) ListMemories(ctx context.Context, projectID, agentID string) ([]memory.Memory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+memoryCols+` FROM agent_memory
		 WHERE project_id = $1 AND agent_id = $2
		 ORDER BY memory_key`,
		projectID, agentID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var memories []memory.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return orEmpty(memories), rows.Err()
}

func scanMemory(row scannable) (memory.Memory, error) {
	var (
		m         memory.Memory
		valueJSON []byte
	)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.AgentID, &m.MemoryKey, &m.MemoryType,
		&valueJSON, &m.ExpiresAt, &m.AccessCount, &m.AccessedAt, &m.CreatedAt); err != nil {
		return memory.Memory{}, err
	}
	if len(valueJSON) > 0 {
		if err := json.Unmarshal(valueJSON, &m.MemoryValue); err != nil {
			return memory.Memory{}, fmt.Errorf("unmarshal memory value: %w", err)
		}
	}
	return m, nil
}
