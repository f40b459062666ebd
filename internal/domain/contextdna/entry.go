// Package contextdna defines the retention-managed context store entity.
//
// Entries are the cross-agent memory of a project: keyed content with a
// TTL. Reading an entry through Get is a side-effecting operation that
// bumps the access counter; filtered scans are not.
package contextdna

import (
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// DefaultRetentionDays is applied when a Put does not specify retention.
const DefaultRetentionDays = 30

// Entry is one retention-managed context record.
type Entry struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	ContextKey    string     `json:"context_key"`
	ContextType   string     `json:"context_type"`
	Content       string     `json:"content"`
	Summary       string     `json:"summary,omitempty"`
	ArtifactRefs  []string   `json:"artifact_references,omitempty"`
	EmbeddingID   string     `json:"embedding_id,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	RetentionDays int        `json:"retention_days"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	AccessCount   int64      `json:"access_count"`
	AccessedAt    *time.Time `json:"accessed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PutRequest upserts an entry by (project_id, context_key).
type PutRequest struct {
	ProjectID     string   `json:"project_id"`
	ContextKey    string   `json:"context_key"`
	ContextType   string   `json:"context_type"`
	Content       string   `json:"content"`
	Summary       string   `json:"summary,omitempty"`
	ArtifactRefs  []string `json:"artifact_references,omitempty"`
	EmbeddingID   string   `json:"embedding_id,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	RetentionDays int      `json:"retention_days,omitempty"`
}

// ExpiryFrom derives the expiration timestamp for an entry whose
// retention_days was set or changed at time now. This is the
// application-layer replacement for the reference trigger: it fires on
// insert and on every update of retention_days, never on other updates.
func ExpiryFrom(now time.Time, retentionDays int) time.Time {
	return now.Add(time.Duration(retentionDays) * 24 * time.Hour)
}

// Expired reports whether the entry is past its expiration at time now.
// Entries without an expiration never expire.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// ValidatePutRequest checks a put request before it reaches storage.
func ValidatePutRequest(req *PutRequest) error {
	if req.ContextKey == "" {
		return fmt.Errorf("context_key is required: %w", domain.ErrValidation)
	}
	if req.ContextType == "" {
		return fmt.Errorf("context_type is required: %w", domain.ErrValidation)
	}
	if req.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative: %w", domain.ErrValidation)
	}
	return nil
}
