// Package export defines the append-only export log entity.
package export

import (
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// Type identifies what kind of delivery was attempted.
type Type string

const (
	TypeGitHub Type = "github"
	TypeFolder Type = "folder"
	TypeZip    Type = "zip"
	TypeDocker Type = "docker"
)

// Destination identifies where the export went.
type Destination string

const (
	DestGitHub Destination = "github"
	DestLocal  Destination = "local"
	DestS3     Destination = "s3"
	DestDocker Destination = "docker"
)

// Status represents the outcome state of an export attempt.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Log is one record of a delivery attempt. No derived fields, no
// mutation after insert.
type Log struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"project_id"`
	ExportType     Type           `json:"export_type"`
	Destination    Destination    `json:"destination_type"`
	Status         Status         `json:"status"`
	FilesExported  int            `json:"files_exported"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	Error          string         `json:"error,omitempty"`
	GitHubRepoURL  string         `json:"github_repo_url,omitempty"`
	CommitSHA      string         `json:"commit_sha,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// RecordRequest holds the fields needed to record an export attempt.
type RecordRequest struct {
	ProjectID      string         `json:"project_id"`
	ExportType     Type           `json:"export_type"`
	Destination    Destination    `json:"destination_type"`
	Status         Status         `json:"status"`
	FilesExported  int            `json:"files_exported"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	Error          string         `json:"error,omitempty"`
	GitHubRepoURL  string         `json:"github_repo_url,omitempty"`
	CommitSHA      string         `json:"commit_sha,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ValidType reports whether t is a known export type.
func ValidType(t Type) bool {
	switch t {
	case TypeGitHub, TypeFolder, TypeZip, TypeDocker:
		return true
	}
	return false
}

// ValidDestination reports whether d is a known destination.
func ValidDestination(d Destination) bool {
	switch d {
	case DestGitHub, DestLocal, DestS3, DestDocker:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known export status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ValidateRecordRequest checks a record request before it reaches storage.
func ValidateRecordRequest(req *RecordRequest) error {
	if !ValidType(req.ExportType) {
		return fmt.Errorf("unknown export_type %q: %w", req.ExportType, domain.ErrValidation)
	}
	if !ValidDestination(req.Destination) {
		return fmt.Errorf("unknown destination_type %q: %w", req.Destination, domain.ErrValidation)
	}
	if !ValidStatus(req.Status) {
		return fmt.Errorf("unknown status %q: %w", req.Status, domain.ErrValidation)
	}
	if req.FilesExported < 0 || req.TotalSizeBytes < 0 {
		return fmt.Errorf("export sizes must not be negative: %w", domain.ErrValidation)
	}
	return nil
}
