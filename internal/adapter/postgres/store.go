package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildloop/ledger/internal/domain/agent"
	"github.com/buildloop/ledger/internal/domain/agentlog"
	"github.com/buildloop/ledger/internal/domain/project"
	"github.com/buildloop/ledger/internal/domain/task"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Projects ---

const projectCols = `id, name, status, current_loop, current_phase, features, created_at, updated_at`

func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectCols+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return orEmpty(projects), rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+projectCols+` FROM projects WHERE id = $1`, id)

	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	featuresJSON, err := json.Marshal(orEmptyMap(req.Features))
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO projects (name, features)
		 VALUES ($1, $2)
		 RETURNING `+projectCols,
		req.Name, featuresJSON)

	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", constraintErr(err))
	}
	return &p, nil
}

func (s *Store) UpdateProjectStatus(ctx context.Context, id string, u project.StatusUpdate) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE projects
		 SET status = $2,
		     current_loop = COALESCE(NULLIF($3, 0), current_loop),
		     current_phase = COALESCE(NULLIF($4, ''), current_phase),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+projectCols,
		id, u.Status, u.CurrentLoop, u.CurrentPhase)

	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "update project %s status", id)
	}
	return &p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete project %s", id)
}

func scanProject(row scannable) (project.Project, error) {
	var (
		p            project.Project
		featuresJSON []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Status, &p.CurrentLoop, &p.CurrentPhase,
		&featuresJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return project.Project{}, err
	}
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &p.Features); err != nil {
			return project.Project{}, fmt.Errorf("unmarshal project features: %w", err)
		}
	}
	return p, nil
}

// --- Agents ---

const agentCols = `id, project_id, agent_type, agent_id, status, last_heartbeat, config, created_at, updated_at`

func (s *Store) ListAgents(ctx context.Context, projectID string) ([]agent.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentCols+` FROM agents WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []agent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return orEmpty(agents), rows.Err()
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Agent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+agentCols+` FROM agents WHERE id = $1`, id)

	a, err := scanAgent(row)
	if err != nil {
		return nil, notFoundWrap(err, "get agent %s", id)
	}
	return &a, nil
}

func (s *Store) CreateAgent(ctx context.Context, req agent.CreateRequest) (*agent.Agent, error) {
	configJSON, err := json.Marshal(orEmptyMap(req.Config))
	if err != nil {
		return nil, fmt.Errorf("marshal agent config: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO agents (project_id, agent_type, agent_id, config)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+agentCols,
		req.ProjectID, req.AgentType, req.AgentID, configJSON)

	a, err := scanAgent(row)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", constraintErr(err))
	}
	return &a, nil
}

func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status agent.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return execExpectOne(tag, err, "update agent %s status", id)
}

func (s *Store) TouchAgentHeartbeat(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET last_heartbeat = $2, updated_at = now() WHERE id = $1`, id, at)
	return execExpectOne(tag, err, "touch agent %s heartbeat", id)
}

func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete agent %s", id)
}

func scanAgent(row scannable) (agent.Agent, error) {
	var (
		a          agent.Agent
		configJSON []byte
	)
	if err := row.Scan(&a.ID, &a.ProjectID, &a.AgentType, &a.AgentID, &a.Status,
		&a.LastHeartbeat, &configJSON, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return agent.Agent{}, err
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &a.Config); err != nil {
			return agent.Agent{}, fmt.Errorf("unmarshal agent config: %w", err)
		}
	}
	return a, nil
}

// --- Tasks ---

const taskCols = `id, project_id, agent_id, parent_task_id, title, status, priority, progress, result, error, metadata, created_at, updated_at`

func (s *Store) ListTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE project_id = $1 ORDER BY priority, created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return orEmpty(tasks), rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id string) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE id = $1`, id)

	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "get task %s", id)
	}
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, req task.CreateRequest) (*task.Task, error) {
	metadataJSON, err := json.Marshal(orEmptyMap(req.Metadata))
	if err != nil {
		return nil, fmt.Errorf("marshal task metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (project_id, agent_id, parent_task_id, title, priority, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+taskCols,
		req.ProjectID, nullIfEmpty(req.AgentID), nullIfEmpty(req.ParentTaskID),
		req.Title, req.Priority, metadataJSON)

	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", constraintErr(err))
	}
	return &t, nil
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status task.Status, result map[string]any, errMsg string) error {
	var resultJSON any
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal task result: %w", err)
		}
		resultJSON = b
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks
		 SET status = $2,
		     result = COALESCE($3, result),
		     error = CASE WHEN $4 <> '' THEN $4 ELSE error END,
		     updated_at = now()
		 WHERE id = $1`,
		id, status, resultJSON, errMsg)
	return execExpectOne(tag, err, "update task %s status", id)
}

func (s *Store) UpdateTaskProgress(ctx context.Context, id string, progress int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET progress = $2, updated_at = now() WHERE id = $1`, id, progress)
	return execExpectOne(tag, err, "update task %s progress", id)
}

func scanTask(row scannable) (task.Task, error) {
	var (
		t            task.Task
		agentID      *string
		parentTaskID *string
		resultJSON   []byte
		metadataJSON []byte
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &agentID, &parentTaskID, &t.Title,
		&t.Status, &t.Priority, &t.Progress, &resultJSON, &t.Error,
		&metadataJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return task.Task{}, err
	}
	if agentID != nil {
		t.AgentID = *agentID
	}
	if parentTaskID != nil {
		t.ParentTaskID = *parentTaskID
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &t.Result); err != nil {
			return task.Task{}, fmt.Errorf("unmarshal task result: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
			return task.Task{}, fmt.Errorf("unmarshal task metadata: %w", err)
		}
	}
	return t, nil
}

// --- Agent logs ---

const logCols = `id, project_id, agent_id, task_id, level, message, metadata, created_at`

func (s *Store) AppendLog(ctx context.Context, req agentlog.AppendRequest) (*agentlog.Entry, error) {
	metadataJSON, err := json.Marshal(orEmptyMap(req.Metadata))
	if err != nil {
		return nil, fmt.Errorf("marshal log metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO agent_logs (project_id, agent_id, task_id, level, message, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+logCols,
		req.ProjectID, nullIfEmpty(req.AgentID), nullIfEmpty(req.TaskID),
		req.Level, req.Message, metadataJSON)

	e, err := scanLogEntry(row)
	if err != nil {
		return nil, fmt.Errorf("append log: %w", constraintErr(err))
	}
	return &e, nil
}

func (s *Store) ListLogs(ctx context.Context, projectID string, level agentlog.Level, limit int) ([]agentlog.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+logCols+` FROM agent_logs
		 WHERE project_id = $1 AND ($2 = '' OR level = $2)
		 ORDER BY id DESC
		 LIMIT $3`,
		projectID, string(level), limit)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var entries []agentlog.Entry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return orEmpty(entries), rows.Err()
}

func scanLogEntry(row scannable) (agentlog.Entry, error) {
	var (
		e            agentlog.Entry
		agentID      *string
		taskID       *string
		metadataJSON []byte
	)
	if err := row.Scan(&e.ID, &e.ProjectID, &agentID, &taskID, &e.Level,
		&e.Message, &metadataJSON, &e.CreatedAt); err != nil {
		return agentlog.Entry{}, err
	}
	if agentID != nil {
		e.AgentID = *agentID
	}
	if taskID != nil {
		e.TaskID = *taskID
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
			return agentlog.Entry{}, fmt.Errorf("unmarshal log metadata: %w", err)
		}
	}
	return e, nil
}

// orEmptyMap keeps JSONB columns as {} instead of SQL null for nil maps.
func orEmptyMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
