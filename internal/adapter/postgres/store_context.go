package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/buildloop/ledger/internal/domain/contextdna"
)

const contextCols = `id, project_id, context_key, context_type, content, summary,
	artifact_references, embedding_id, tags, retention_days,
	expires_at, access_count, accessed_at, created_at, updated_at`

// PutContextEntry upserts an entry by (project_id, context_key). The
// expiry is recomputed only when retention_days actually changes; a
// content-only update keeps the existing deadline so rewriting an entry
// never silently extends its life.
func (s *Store) PutContextEntry(ctx context.Context, req contextdna.PutRequest, expiresAt time.Time) (*contextdna.Entry, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO context_dna_entries
		     (project_id, context_key, context_type, content, summary,
		      artifact_references, embedding_id, tags, retention_days, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (project_id, context_key) DO UPDATE
		 SET context_type = EXCLUDED.context_type,
		     content = EXCLUDED.content,
		     summary = EXCLUDED.summary,
		     artifact_references = EXCLUDED.artifact_references,
		     embedding_id = EXCLUDED.embedding_id,
		     tags = EXCLUDED.tags,
		     expires_at = CASE
		         WHEN context_dna_entries.retention_days IS DISTINCT FROM EXCLUDED.retention_days
		         THEN EXCLUDED.expires_at
		         ELSE context_dna_entries.expires_at
		     END,
		     retention_days = EXCLUDED.retention_days,
		     updated_at = now()
		 RETURNING `+contextCols,
		req.ProjectID, req.ContextKey, req.ContextType, req.Content, req.Summary,
		pgTextArray(req.ArtifactRefs), req.EmbeddingID, pgTextArray(req.Tags),
		req.RetentionDays, expiresAt)

	e, err := scanContextEntry(row)
	if err != nil {
		return nil, fmt.Errorf("put context entry %s: %w", req.ContextKey, constraintErr(err))
	}
	return &e, nil
}

// GetContextEntry reads one entry and records the access: the counter
// is bumped and accessed_at set in the same statement, so concurrent
// readers never lose increments.
func (s *Store) GetContextEntry(ctx context.Context, id string, now time.Time) (*contextdna.Entry, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE context_dna_entries
		 SET access_count = access_count + 1, accessed_at = $2
		 WHERE id = $1
		 RETURNING `+contextCols,
		id, now)

	e, err := scanContextEntry(row)
	if err != nil {
		return nil, notFoundWrap(err, "get context entry %s", id)
	}
	return &e, nil
}

func (s *Store) DeleteContextEntry(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM context_dna_entries WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete context entry %s", id)
}

// ListContextEntriesByTag scans entries carrying the tag. Scans are
// read-only: access counters are untouched.
func (s *Store) ListContextEntriesByTag(ctx context.Context, projectID, tag string) ([]contextdna.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contextCols+` FROM context_dna_entries
		 WHERE project_id = $1 AND $2 = ANY(tags)
		 ORDER BY updated_at DESC`,
		projectID, tag)
	if err != nil {
		return nil, fmt.Errorf("list context entries by tag %s: %w", tag, err)
	}
	defer rows.Close()

	var entries []contextdna.Entry
	for rows.Next() {
		e, err := scanContextEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return orEmpty(entries), rows.Err()
}

// SweepExpiredContextEntries deletes every entry whose deadline has
// passed and returns the count. Idempotent: a second sweep at the same
// instant deletes nothing.
func (s *Store) SweepExpiredContextEntries(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM context_dna_entries
		 WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep expired context entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanContextEntry(row scannable) (contextdna.Entry, error) {
	var e contextdna.Entry
	if err := row.Scan(&e.ID, &e.ProjectID, &e.ContextKey, &e.ContextType, &e.Content,
		&e.Summary, &e.ArtifactRefs, &e.EmbeddingID, &e.Tags, &e.RetentionDays,
		&e.ExpiresAt, &e.AccessCount, &e.AccessedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return contextdna.Entry{}, err
	}
	return e, nil
}
