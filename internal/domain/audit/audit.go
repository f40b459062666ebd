// Package audit defines the audit ledger entities and the derived-field
// computations (overall score, run duration) as pure functions. The
// reference system computed these in database triggers; keeping them in
// the application makes them portable and directly testable.
package audit

import (
	"fmt"
	"math"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// Type classifies what an audit run checks.
type Type string

const (
	TypeTheater    Type = "theater"
	TypeProduction Type = "production"
	TypeQuality    Type = "quality"
	TypeFull       Type = "full"
)

// Status represents the lifecycle state of an audit run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Run is one execution of an automated audit. Counter fields and the
// scores derived from them are recomputed on every write; the row is
// immutable once completed except for late-arriving child findings.
type Run struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	AuditType       Type           `json:"audit_type"`
	AuditPhase      string         `json:"audit_phase,omitempty"`
	Status          Status         `json:"status"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	DurationSeconds *int64         `json:"duration_seconds,omitempty"`
	TotalChecks     int            `json:"total_checks"`
	PassedChecks    int            `json:"passed_checks"`
	FailedChecks    int            `json:"failed_checks"`
	WarningChecks   int            `json:"warning_checks"`
	TheaterScore    float64        `json:"theater_score"`
	ProductionScore float64        `json:"production_score"`
	QualityScore    float64        `json:"quality_score"`
	OverallScore    float64        `json:"overall_score"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Finding is one result row attached to a run. Pure append: never
// mutated after creation, deleted only in cascade with its run.
type Finding struct {
	ID             string         `json:"id"`
	AuditRunID     string         `json:"audit_run_id"`
	ProjectID      string         `json:"project_id"`
	Category       string         `json:"category"`
	Severity       Severity       `json:"severity"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	FilePath       string         `json:"file_path,omitempty"`
	LineNumber     int            `json:"line_number,omitempty"`
	ColumnNumber   int            `json:"column_number,omitempty"`
	CodeSnippet    string         `json:"code_snippet,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
	AutoFixable    bool           `json:"auto_fixable"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ComplianceCheck records one function's adherence to the fixed rule
// set: bounded length, assertions present, no recursion, fixed loop
// bounds. One row per function examined per run, append-only.
type ComplianceCheck struct {
	ID             string    `json:"id"`
	AuditRunID     string    `json:"audit_run_id"`
	ProjectID      string    `json:"project_id"`
	FilePath       string    `json:"file_path"`
	FunctionName   string    `json:"function_name"`
	LineCount      int       `json:"line_count"`
	Compliant      bool      `json:"compliant"`
	ViolationType  string    `json:"violation_type,omitempty"`
	HasAssertions  bool      `json:"has_assertions"`
	AssertionCount int       `json:"assertion_count"`
	UsesRecursion  bool      `json:"uses_recursion"`
	HasFixedBounds bool      `json:"has_fixed_bounds"`
	CreatedAt      time.Time `json:"created_at"`
}

// Counts carries the counter fields set when a run completes.
type Counts struct {
	Total   int `json:"total_checks"`
	Passed  int `json:"passed_checks"`
	Failed  int `json:"failed_checks"`
	Warning int `json:"warning_checks"`
}

// OverallScore computes the weighted pass rate as a percentage rounded
// to two decimals. A warning counts as half-credit. Zero total yields
// 0.0 rather than NaN.
func OverallScore(total, passed, _, warning int) float64 {
	if total == 0 {
		return 0.0
	}
	score := (float64(passed) + 0.5*float64(warning)) / float64(total) * 100
	return math.Round(score*100) / 100
}

// Duration derives duration_seconds for a run. It returns nil unless
// the run is completed with both timestamps present. Same inputs always
// yield the same output, so recomputing on every update is safe.
func Duration(status Status, startedAt, completedAt *time.Time) *int64 {
	if status != StatusCompleted || startedAt == nil || completedAt == nil {
		return nil
	}
	secs := int64(completedAt.Sub(*startedAt).Seconds())
	return &secs
}

// ValidType reports whether t is a known audit type.
func ValidType(t Type) bool {
	switch t {
	case TypeTheater, TypeProduction, TypeQuality, TypeFull:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known run status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a known finding severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ValidateFinding checks a finding before it reaches storage.
func ValidateFinding(f *Finding) error {
	if f.Category == "" {
		return fmt.Errorf("category is required: %w", domain.ErrValidation)
	}
	if !ValidSeverity(f.Severity) {
		return fmt.Errorf("unknown severity %q: %w", f.Severity, domain.ErrValidation)
	}
	if f.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateComplianceCheck checks a compliance row before it reaches storage.
func ValidateComplianceCheck(c *ComplianceCheck) error {
	if c.FilePath == "" {
		return fmt.Errorf("file_path is required: %w", domain.ErrValidation)
	}
	if c.FunctionName == "" {
		return fmt.Errorf("function_name is required: %w", domain.ErrValidation)
	}
	if c.LineCount <= 0 {
		return fmt.Errorf("line_count must be positive: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateCounts checks completion counters for internal consistency.
func ValidateCounts(c Counts) error {
	if c.Total < 0 || c.Passed < 0 || c.Failed < 0 || c.Warning < 0 {
		return fmt.Errorf("check counts must not be negative: %w", domain.ErrValidation)
	}
	if c.Passed+c.Failed+c.Warning > c.Total {
		return fmt.Errorf("passed+failed+warning exceeds total: %w", domain.ErrValidation)
	}
	return nil
}
