// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/buildloop/ledger/internal/domain/agent"
	"github.com/buildloop/ledger/internal/domain/agentlog"
	"github.com/buildloop/ledger/internal/domain/artifact"
	"github.com/buildloop/ledger/internal/domain/audit"
	"github.com/buildloop/ledger/internal/domain/contextdna"
	"github.com/buildloop/ledger/internal/domain/export"
	"github.com/buildloop/ledger/internal/domain/memory"
	"github.com/buildloop/ledger/internal/domain/project"
	"github.com/buildloop/ledger/internal/domain/task"
)

// Store is the port interface for database operations.
type Store interface {
	// Projects
	ListProjects(ctx context.Context) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	CreateProject(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	UpdateProjectStatus(ctx context.Context, id string, u project.StatusUpdate) (*project.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// Agents
	ListAgents(ctx context.Context, projectID string) ([]agent.Agent, error)
	GetAgent(ctx context.Context, id string) (*agent.Agent, error)
	CreateAgent(ctx context.Context, req agent.CreateRequest) (*agent.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, status agent.Status) error
	TouchAgentHeartbeat(ctx context.Context, id string, at time.Time) error
	DeleteAgent(ctx context.Context, id string) error

	// Tasks
	ListTasks(ctx context.Context, projectID string) ([]task.Task, error)
	GetTask(ctx context.Context, id string) (*task.Task, error)
	CreateTask(ctx context.Context, req task.CreateRequest) (*task.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status task.Status, result map[string]any, errMsg string) error
	UpdateTaskProgress(ctx context.Context, id string, progress int) error

	// Agent logs
	AppendLog(ctx context.Context, req agentlog.AppendRequest) (*agentlog.Entry, error)
	ListLogs(ctx context.Context, projectID string, level agentlog.Level, limit int) ([]agentlog.Entry, error)

	// Context entries (retention store)
	PutContextEntry(ctx context.Context, req contextdna.PutRequest, expiresAt time.Time) (*contextdna.Entry, error)
	GetContextEntry(ctx context.Context, id string, now time.Time) (*contextdna.Entry, error)
	DeleteContextEntry(ctx context.Context, id string) error
	ListContextEntriesByTag(ctx context.Context, projectID, tag string) ([]contextdna.Entry, error)
	SweepExpiredContextEntries(ctx context.Context, now time.Time) (int64, error)

	// Agent memory
	PutMemory(ctx context.Context, req memory.PutRequest) (*memory.Memory, error)
	GetMemory(ctx context.Context, id string, now time.Time) (*memory.Memory, error)
	ListMemories(ctx context.Context, projectID, agentID string) ([]memory.Memory, error)

	// Artifact references
	RegisterArtifact(ctx context.Context, req artifact.RegisterRequest) (*artifact.Metadata, error)
	GetArtifact(ctx context.Context, id string) (*artifact.Metadata, error)
	ListArtifacts(ctx context.Context, projectID string) ([]artifact.Metadata, error)

	// Audit ledger
	CreateAuditRun(ctx context.Context, r *audit.Run) error
	GetAuditRun(ctx context.Context, id string) (*audit.Run, error)
	ListAuditRuns(ctx context.Context, projectID string, auditType audit.Type) ([]audit.Run, error)
	UpdateAuditRunStatus(ctx context.Context, id string, status audit.Status, startedAt *time.Time) error
	CompleteAuditRun(ctx context.Context, r *audit.Run) error
	InsertFinding(ctx context.Context, f *audit.Finding) error
	ListFindings(ctx context.Context, runID string) ([]audit.Finding, error)
	InsertComplianceCheck(ctx context.Context, c *audit.ComplianceCheck) error
	ListComplianceChecks(ctx context.Context, runID string) ([]audit.ComplianceCheck, error)

	// Export ledger
	RecordExport(ctx context.Context, req export.RecordRequest) (*export.Log, error)
	ListExports(ctx context.Context, projectID string) ([]export.Log, error)
}
