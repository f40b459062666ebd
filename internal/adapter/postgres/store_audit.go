package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain/audit"
)

const auditRunCols = `id, project_id, audit_type, audit_phase, status,
	started_at, completed_at, duration_seconds,
	total_checks, passed_checks, failed_checks, warning_checks,
	theater_score, production_score, quality_score, overall_score,
	metadata, created_at, updated_at`

// CreateAuditRun inserts a new pending run and fills r with the stored row.
func (s *Store) CreateAuditRun(ctx context.Context, r *audit.Run) error {
	metadataJSON, err := json.Marshal(orEmptyMap(r.Metadata))
	if err != nil {
		return fmt.Errorf("marshal audit run metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO audit_runs (project_id, audit_type, audit_phase, metadata)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+auditRunCols,
		r.ProjectID, r.AuditType, r.AuditPhase, metadataJSON)

	stored, err := scanAuditRun(row)
	if err != nil {
		return fmt.Errorf("create audit run: %w", constraintErr(err))
	}
	*r = stored
	return nil
}

func (s *Store) GetAuditRun(ctx context.Context, id string) (*audit.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+auditRunCols+` FROM audit_runs WHERE id = $1`, id)

	r, err := scanAuditRun(row)
	if err != nil {
		return nil, notFoundWrap(err, "get audit run %s", id)
	}
	return &r, nil
}

func (s *Store) ListAuditRuns(ctx context.Context, projectID string, auditType audit.Type) ([]audit.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+auditRunCols+` FROM audit_runs
		 WHERE project_id = $1 AND ($2 = '' OR audit_type = $2)
		 ORDER BY created_at DESC`,
		projectID, string(auditType))
	if err != nil {
		return nil, fmt.Errorf("list audit runs: %w", err)
	}
	defer rows.Close()

	var runs []audit.Run
	for rows.Next() {
		r, err := scanAuditRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return orEmpty(runs), rows.Err()
}

// UpdateAuditRunStatus moves a run through its lifecycle. started_at is
// set only when provided, so re-transitions never rewrite the original
// start time.
func (s *Store) UpdateAuditRunStatus(ctx context.Context, id string, status audit.Status, startedAt *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE audit_runs
		 SET status = $2,
		     started_at = COALESCE($3, started_at),
		     updated_at = now()
		 WHERE id = $1`,
		id, status, startedAt)
	return execExpectOne(tag, err, "update audit run %s status", id)
}

// CompleteAuditRun writes the terminal state of a run: counters, the
// scores derived from them, completion timestamp and duration. Repeated
// completion is last-write-wins.
func (s *Store) CompleteAuditRun(ctx context.Context, r *audit.Run) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE audit_runs
		 SET status = $2,
		     completed_at = $3,
		     duration_seconds = $4,
		     total_checks = $5, passed_checks = $6, failed_checks = $7, warning_checks = $8,
		     theater_score = $9, production_score = $10, quality_score = $11, overall_score = $12,
		     updated_at = now()
		 WHERE id = $1`,
		r.ID, r.Status, r.CompletedAt, r.DurationSeconds,
		r.TotalChecks, r.PassedChecks, r.FailedChecks, r.WarningChecks,
		r.TheaterScore, r.ProductionScore, r.QualityScore, r.OverallScore)
	return execExpectOne(tag, err, "complete audit run %s", r.ID)
}

func scanAuditRun(row scannable) (audit.Run, error) {
	var (
		r            audit.Run
		metadataJSON []byte
	)
	if err := row.Scan(&r.ID, &r.ProjectID, &r.AuditType, &r.AuditPhase, &r.Status,
		&r.StartedAt, &r.CompletedAt, &r.DurationSeconds,
		&r.TotalChecks, &r.PassedChecks, &r.FailedChecks, &r.WarningChecks,
		&r.TheaterScore, &r.ProductionScore, &r.QualityScore, &r.OverallScore,
		&metadataJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return audit.Run{}, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			return audit.Run{}, fmt.Errorf("unmarshal audit run metadata: %w", err)
		}
	}
	return r, nil
}

// --- Findings ---

const findingCols = `id, audit_run_id, project_id, category, severity, title, description,
	file_path, line_number, column_number, code_snippet, recommendation,
	auto_fixable, metadata, created_at`

// InsertFinding appends a finding to a run and fills f with the stored row.
func (s *Store) InsertFinding(ctx context.Context, f *audit.Finding) error {
	metadataJSON, err := json.Marshal(orEmptyMap(f.Metadata))
	if err != nil {
		return fmt.Errorf("marshal finding metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO audit_findings
		     (audit_run_id, project_id, category, severity, title, description,
		      file_path, line_number, column_number, code_snippet, recommendation,
		      auto_fixable, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+findingCols,
		f.AuditRunID, f.ProjectID, f.Category, f.Severity, f.Title, f.Description,
		f.FilePath, f.LineNumber, f.ColumnNumber, f.CodeSnippet, f.Recommendation,
		f.AutoFixable, metadataJSON)

	stored, err := scanFinding(row)
	if err != nil {
		return fmt.Errorf("insert finding: %w", constraintErr(err))
	}
	*f = stored
	return nil
}

func (s *Store) ListFindings(ctx context.Context, runID string) ([]audit.Finding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+findingCols+` FROM audit_findings
		 WHERE audit_run_id = $1 ORDER BY created_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close()

	var findings []audit.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return orEmpty(findings), rows.Err()
}

func scanFinding(row scannable) (audit.Finding, error) {
	var (
		f            audit.Finding
		metadataJSON []byte
	)
	if err := row.Scan(&f.ID, &f.AuditRunID, &f.ProjectID, &f.Category, &f.Severity,
		&f.Title, &f.Description, &f.FilePath, &f.LineNumber, &f.ColumnNumber,
		&f.CodeSnippet, &f.Recommendation, &f.AutoFixable, &metadataJSON, &f.CreatedAt); err != nil {
		return audit.Finding{}, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &f.Metadata); err != nil {
			return audit.Finding{}, fmt.Errorf("unmarshal finding metadata: %w", err)
		}
	}
	return f, nil
}

// --- Compliance checks ---

const checkCols = `id, audit_run_id, project_id, file_path, function_name, line_count,
	compliant, violation_type, has_assertions, assertion_count,
	uses_recursion, has_fixed_bounds, created_at`

// InsertComplianceCheck appends a per-function compliance row to a run.
func (s *Store) InsertComplianceCheck(ctx context.Context, c *audit.ComplianceCheck) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO nasa_compliance_checks
		     (audit_run_id, project_id, file_path, function_name, line_count,
		      compliant, violation_type, has_assertions, assertion_count,
		      uses_recursion, has_fixed_bounds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+checkCols,
		c.AuditRunID, c.ProjectID, c.FilePath, c.FunctionName, c.LineCount,
		c.Compliant, c.ViolationType, c.HasAssertions, c.AssertionCount,
		c.UsesRecursion, c.HasFixedBounds)

	stored, err := scanComplianceCheck(row)
	if err != nil {
		return fmt.Errorf("insert compliance check: %w", constraintErr(err))
	}
	*c = stored
	return nil
}

func (s *Store) ListComplianceChecks(ctx context.Context, runID string) ([]audit.ComplianceCheck, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+checkCols+` FROM nasa_compliance_checks
		 WHERE audit_run_id = $1 ORDER BY file_path, function_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("list compliance checks: %w", err)
	}
	defer rows.Close()

	var checks []audit.ComplianceCheck
	for rows.Next() {
		c, err := scanComplianceCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return orEmpty(checks), rows.Err()
}

func scanComplianceCheck(row scannable) (audit.ComplianceCheck, error) {
	var c audit.ComplianceCheck
	if err := row.Scan(&c.ID, &c.AuditRunID, &c.ProjectID, &c.FilePath, &c.FunctionName,
		&c.LineCount, &c.Compliant, &c.ViolationType, &c.HasAssertions,
		&c.AssertionCount, &c.UsesRecursion, &c.HasFixedBounds, &c.CreatedAt); err != nil {
		return audit.ComplianceCheck{}, err
	}
	return c, nil
}
