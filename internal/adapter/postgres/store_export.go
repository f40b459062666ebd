package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buildloop/ledger/internal/domain/export"
)

const exportCols = `id, project_id, export_type, destination_type, status,
	files_exported, total_size_bytes, error, github_repo_url, commit_sha, metadata, created_at`

// RecordExport appends one export attempt. Rows are never updated; a
// retried export is a new row.
func (s *Store) RecordExport(ctx context.Context, req export.RecordRequest) (*export.Log, error) {
	metadataJSON, err := json.Marshal(orEmptyMap(req.Metadata))
	if err != nil {
		return nil, fmt.Errorf("marshal export metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO export_logs
		     (project_id, export_type, destination_type, status,
		      files_exported, total_size_bytes, error, github_repo_url, commit_sha, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+exportCols,
		req.ProjectID, req.ExportType, req.Destination, req.Status,
		req.FilesExported, req.TotalSizeBytes, req.Error, req.GitHubRepoURL,
		req.CommitSHA, metadataJSON)

	l, err := scanExportLog(row)
	if err != nil {
		return nil, fmt.Errorf("record export: %w", constraintErr(err))
	}
	return &l, nil
}

func (s *Store) ListExports(ctx context.Context, projectID string) ([]export.Log, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+exportCols+` FROM export_logs
		 WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var logs []export.Log
	for rows.Next() {
		l, err := scanExportLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return orEmpty(logs), rows.Err()
}

func scanExportLog(row scannable) (export.Log, error) {
	var (
		l            export.Log
		metadataJSON []byte
	)
	if err := row.Scan(&l.ID, &l.ProjectID, &l.ExportType, &l.Destination, &l.Status,
		&l.FilesExported, &l.TotalSizeBytes, &l.Error, &l.GitHubRepoURL,
		&l.CommitSHA, &metadataJSON, &l.CreatedAt); err != nil {
		return export.Log{}, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &l.Metadata); err != nil {
			return export.Log{}, fmt.Errorf("unmarshal export metadata: %w", err)
		}
	}
	return l, nil
}
