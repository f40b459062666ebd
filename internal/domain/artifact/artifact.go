// Package artifact defines typed pointers to externally stored content.
//
// The ledger never stores or dereferences artifact bytes; it records
// where they live (backend + path) and how to verify them (hash). Large
// content is referenced from context entries instead of duplicated
// inline.
package artifact

import (
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain"
)

// StorageBackend identifies where artifact bytes live.
type StorageBackend string

const (
	BackendS3       StorageBackend = "s3"
	BackendLocal    StorageBackend = "local"
	BackendRedis    StorageBackend = "redis"
	BackendPinecone StorageBackend = "pinecone"
)

// Metadata is one artifact pointer. ContextDNAID is a weak reference:
// deleting the owning context entry nulls it, since other entries or
// processes may still reference the same content by hash.
type Metadata struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"project_id"`
	ContextDNAID   string         `json:"context_dna_id,omitempty"`
	ArtifactPath   string         `json:"artifact_path"`
	ArtifactType   string         `json:"artifact_type"`
	StorageBackend StorageBackend `json:"storage_backend"`
	StoragePath    string         `json:"storage_path"`
	FileSizeBytes  int64          `json:"file_size_bytes"`
	ContentHash    string         `json:"content_hash"`
	MimeType       string         `json:"mime_type,omitempty"`
	Extra          map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// RegisterRequest holds the fields needed to register an artifact pointer.
type RegisterRequest struct {
	ProjectID      string         `json:"project_id"`
	ContextDNAID   string         `json:"context_dna_id,omitempty"`
	ArtifactPath   string         `json:"artifact_path"`
	ArtifactType   string         `json:"artifact_type"`
	StorageBackend StorageBackend `json:"storage_backend"`
	StoragePath    string         `json:"storage_path"`
	FileSizeBytes  int64          `json:"file_size_bytes"`
	ContentHash    string         `json:"content_hash"`
	MimeType       string         `json:"mime_type,omitempty"`
	Extra          map[string]any `json:"metadata,omitempty"`
}

// Location is the result of resolving an artifact: enough to fetch the
// bytes from the external backend, nothing more.
type Location struct {
	Backend StorageBackend `json:"backend"`
	Path    string         `json:"path"`
}

// ValidBackend reports whether b is a known storage backend.
func ValidBackend(b StorageBackend) bool {
	switch b {
	case BackendS3, BackendLocal, BackendRedis, BackendPinecone:
		return true
	}
	return false
}

// ValidateRegisterRequest checks a registration before it reaches storage.
func ValidateRegisterRequest(req *RegisterRequest) error {
	if req.ArtifactPath == "" {
		return fmt.Errorf("artifact_path is required: %w", domain.ErrValidation)
	}
	if !ValidBackend(req.StorageBackend) {
		return fmt.Errorf("unknown storage_backend %q: %w", req.StorageBackend, domain.ErrValidation)
	}
	if req.StoragePath == "" {
		return fmt.Errorf("storage_path is required: %w", domain.ErrValidation)
	}
	if req.FileSizeBytes < 0 {
		return fmt.Errorf("file_size_bytes must not be negative: %w", domain.ErrValidation)
	}
	return nil
}
