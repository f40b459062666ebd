package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buildloop/ledger/internal/adapter/otel"
	"github.com/buildloop/ledger/internal/adapter/ws"
	"github.com/buildloop/ledger/internal/domain"
	"github.com/buildloop/ledger/internal/domain/audit"
	"github.com/buildloop/ledger/internal/port/broadcast"
	"github.com/buildloop/ledger/internal/port/database"
	"github.com/buildloop/ledger/internal/port/messagequeue"
)

// AuditService handles the audit ledger: run lifecycle, append-only
// findings and compliance rows, and the derived scores written when a
// run completes.
type AuditService struct {
	store   database.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
}

// NewAuditService creates a new AuditService. queue, hub and metrics
// may be nil.
func NewAuditService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *otel.Metrics) *AuditService {
	return &AuditService{store: store, queue: queue, hub: hub, metrics: metrics}
}

// StartRequest opens a new audit run.
type StartRequest struct {
	ProjectID  string         `json:"project_id"`
	AuditType  audit.Type     `json:"audit_type"`
	AuditPhase string         `json:"audit_phase,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// CompleteRequest carries the terminal state of a run. Per-dimension
// scores come from the auditor; the overall score is derived from the
// counters here, never trusted from the caller.
type CompleteRequest struct {
	Status          audit.Status `json:"status"`
	Counts          audit.Counts `json:"counts"`
	TheaterScore    float64      `json:"theater_score,omitempty"`
	ProductionScore float64      `json:"production_score,omitempty"`
	QualityScore    float64      `json:"quality_score,omitempty"`
}

// StartRun creates a pending run.
func (s *AuditService) StartRun(ctx context.Context, req *StartRequest) (*audit.Run, error) {
	if !audit.ValidType(req.AuditType) {
		return nil, fmt.Errorf("unknown audit_type %q: %w", req.AuditType, domain.ErrValidation)
	}

	r := &audit.Run{
		ProjectID:  req.ProjectID,
		AuditType:  req.AuditType,
		AuditPhase: req.AuditPhase,
		Metadata:   req.Metadata,
	}
	if err := s.store.CreateAuditRun(ctx, r); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AuditsStarted.Add(ctx, 1)
	}
	return r, nil
}

// GetRun returns a run by ID.
func (s *AuditService) GetRun(ctx context.Context, id string) (*audit.Run, error) {
	return s.store.GetAuditRun(ctx, id)
}

// ListRuns returns a project's runs, newest first. An empty type
// matches all types.
func (s *AuditService) ListRuns(ctx context.Context, projectID string, auditType audit.Type) ([]audit.Run, error) {
	if auditType != "" && !audit.ValidType(auditType) {
		return nil, fmt.Errorf("unknown audit_type %q: %w", auditType, domain.ErrValidation)
	}
	return s.store.ListAuditRuns(ctx, projectID, auditType)
}

// TransitionRun moves a run to in_progress or failed. Completion goes
// through CompleteRun, which also writes counters and scores.
func (s *AuditService) TransitionRun(ctx context.Context, id string, status audit.Status) error {
	if !audit.ValidStatus(status) {
		return fmt.Errorf("unknown audit status %q: %w", status, domain.ErrValidation)
	}
	if status == audit.StatusCompleted {
		return fmt.Errorf("completion requires counters, use the complete operation: %w", domain.ErrInvalidState)
	}

	var startedAt *time.Time
	if status == audit.StatusInProgress {
		now := time.Now().UTC()
		startedAt = &now
	}
	return s.store.UpdateAuditRunStatus(ctx, id, status, startedAt)
}

// CompleteRun writes the terminal state of a run. The overall score and
// duration are derived here; repeated completion is last-write-wins.
func (s *AuditService) CompleteRun(ctx context.Context, id string, req *CompleteRequest) (*audit.Run, error) {
	if req.Status != audit.StatusCompleted && req.Status != audit.StatusFailed {
		return nil, fmt.Errorf("terminal status must be completed or failed, got %q: %w", req.Status, domain.ErrValidation)
	}
	if err := audit.ValidateCounts(req.Counts); err != nil {
		return nil, err
	}

	r, err := s.store.GetAuditRun(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r.Status = req.Status
	r.CompletedAt = &now
	r.TotalChecks = req.Counts.Total
	r.PassedChecks = req.Counts.Passed
	r.FailedChecks = req.Counts.Failed
	r.WarningChecks = req.Counts.Warning
	r.TheaterScore = req.TheaterScore
	r.ProductionScore = req.ProductionScore
	r.QualityScore = req.QualityScore
	r.OverallScore = audit.OverallScore(req.Counts.Total, req.Counts.Passed, req.Counts.Failed, req.Counts.Warning)
	r.DurationSeconds = audit.Duration(r.Status, r.StartedAt, r.CompletedAt)

	if err := s.store.CompleteAuditRun(ctx, r); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AuditsCompleted.Add(ctx, 1)
		if r.Status == audit.StatusCompleted {
			s.metrics.AuditScore.Record(ctx, r.OverallScore)
		}
	}

	event := ws.AuditCompletedEvent{
		AuditRunID:   r.ID,
		ProjectID:    r.ProjectID,
		AuditType:    string(r.AuditType),
		Status:       string(r.Status),
		OverallScore: r.OverallScore,
	}
	if s.queue != nil {
		data, err := json.Marshal(event)
		if err == nil {
			if pubErr := s.queue.Publish(ctx, messagequeue.SubjectAuditCompleted, data); pubErr != nil {
				slog.Error("failed to publish audit completion", "audit_run_id", r.ID, "error", pubErr)
			}
		}
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventAuditCompleted, event)
	}

	return r, nil
}

// RecordFinding appends a finding to a run. The run's project scope is
// stamped onto the finding so project deletion cascades cleanly. A
// missing parent run is an invalid-state error, matching what the
// foreign key would report on a direct insert.
func (s *AuditService) RecordFinding(ctx context.Context, runID string, f *audit.Finding) (*audit.Finding, error) {
	if err := audit.ValidateFinding(f); err != nil {
		return nil, err
	}

	r, err := s.store.GetAuditRun(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("audit run %s: %w", runID, domain.ErrInvalidState)
		}
		return nil, err
	}
	f.AuditRunID = r.ID
	f.ProjectID = r.ProjectID

	if err := s.store.InsertFinding(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ListFindings returns a run's findings in insertion order.
func (s *AuditService) ListFindings(ctx context.Context, runID string) ([]audit.Finding, error) {
	return s.store.ListFindings(ctx, runID)
}

// RecordComplianceCheck appends a per-function compliance row to a run.
func (s *AuditService) RecordComplianceCheck(ctx context.Context, runID string, c *audit.ComplianceCheck) (*audit.ComplianceCheck, error) {
	if err := audit.ValidateComplianceCheck(c); err != nil {
		return nil, err
	}

	r, err := s.store.GetAuditRun(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("audit run %s: %w", runID, domain.ErrInvalidState)
		}
		return nil, err
	}
	c.AuditRunID = r.ID
	c.ProjectID = r.ProjectID

	if err := s.store.InsertComplianceCheck(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListComplianceChecks returns a run's compliance rows.
func (s *AuditService) ListComplianceChecks(ctx context.Context, runID string) ([]audit.ComplianceCheck, error) {
	return s.store.ListComplianceChecks(ctx, runID)
}
