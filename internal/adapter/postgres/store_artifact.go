package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buildloop/ledger/internal/domain/artifact"
)

const artifactCols = `id, project_id, context_dna_id, artifact_path, artifact_type,
	storage_backend, storage_path, file_size_bytes, content_hash, mime_type, metadata, created_at`

func (s *Store) RegisterArtifact(ctx context.Context, req artifact.RegisterRequest) (*artifact.Metadata, error) {
	extraJSON, err := json.Marshal(orEmptyMap(req.Extra))
	if err != nil {
		return nil, fmt.Errorf("marshal artifact metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO artifact_metadata
		     (project_id, context_dna_id, artifact_path, artifact_type,
		      storage_backend, storage_path, file_size_bytes, content_hash, mime_type, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+artifactCols,
		req.ProjectID, nullIfEmpty(req.ContextDNAID), req.ArtifactPath, req.ArtifactType,
		req.StorageBackend, req.StoragePath, req.FileSizeBytes, req.ContentHash,
		req.MimeType, extraJSON)

	m, err := scanArtifact(row)
	if err != nil {
		return nil, fmt.Errorf("register artifact %s: %w", req.ArtifactPath, constraintErr(err))
	}
	return &m, nil
}

func (s *Store) GetArtifact(ctx context.Context, id string) (*artifact.Metadata, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+artifactCols+` FROM artifact_metadata WHERE id = $1`, id)

	m, err := scanArtifact(row)
	if err != nil {
		return nil, notFoundWrap(err, "get artifact %s", id)
	}
	return &m, nil
}

func (s *Store) ListArtifacts(ctx context.Context, projectID string) ([]artifact.Metadata, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+artifactCols+` FROM artifact_metadata
		 WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []artifact.Metadata
	for rows.Next() {
		m, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, m)
	}
	return orEmpty(artifacts), rows.Err()
}

func scanArtifact(row scannable) (artifact.Metadata, error) {
	var (
		m            artifact.Metadata
		contextDNAID *string
		extraJSON    []byte
	)
	if err := row.Scan(&m.ID, &m.ProjectID, &contextDNAID, &m.ArtifactPath, &m.ArtifactType,
		&m.StorageBackend, &m.StoragePath, &m.FileSizeBytes, &m.ContentHash,
		&m.MimeType, &extraJSON, &m.CreatedAt); err != nil {
		return artifact.Metadata{}, err
	}
	if contextDNAID != nil {
		m.ContextDNAID = *contextDNAID
	}
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &m.Extra); err != nil {
			return artifact.Metadata{}, fmt.Errorf("unmarshal artifact metadata: %w", err)
		}
	}
	return m, nil
}
