package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/buildloop/ledger/internal/adapter/otel"
	"github.com/buildloop/ledger/internal/adapter/ws"
	"github.com/buildloop/ledger/internal/domain/contextdna"
	"github.com/buildloop/ledger/internal/port/broadcast"
	"github.com/buildloop/ledger/internal/port/database"
	"github.com/buildloop/ledger/internal/port/messagequeue"
)

// RetentionService owns the context store and its expiry lifecycle:
// keyed upserts with TTL derivation, side-effecting reads, tag scans
// and the periodic sweep.
type RetentionService struct {
	store       database.Store
	queue       messagequeue.Queue
	hub         broadcast.Broadcaster
	metrics     *otel.Metrics
	defaultDays int
}

// NewRetentionService creates a new RetentionService. queue, hub and
// metrics may be nil when the corresponding backend is not wired.
func NewRetentionService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *otel.Metrics, defaultDays int) *RetentionService {
	if defaultDays <= 0 {
		defaultDays = contextdna.DefaultRetentionDays
	}
	return &RetentionService{
		store:       store,
		queue:       queue,
		hub:         hub,
		metrics:     metrics,
		defaultDays: defaultDays,
	}
}

// Put upserts an entry by (project_id, context_key). A zero
// retention_days takes the configured default. The expiry passed to the
// store is only applied when retention actually changed; the store
// keeps the existing deadline otherwise.
func (s *RetentionService) Put(ctx context.Context, req *contextdna.PutRequest) (*contextdna.Entry, error) {
	if req.RetentionDays == 0 {
		req.RetentionDays = s.defaultDays
	}
	if err := contextdna.ValidatePutRequest(req); err != nil {
		return nil, err
	}
	expiresAt := contextdna.ExpiryFrom(time.Now().UTC(), req.RetentionDays)
	return s.store.PutContextEntry(ctx, *req, expiresAt)
}

// Get reads one entry, recording the access. Expired entries that the
// sweep has not yet removed are still returned; expiry is enforced by
// deletion, not by read filtering.
func (s *RetentionService) Get(ctx context.Context, id string) (*contextdna.Entry, error) {
	e, err := s.store.GetContextEntry(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ContextReads.Add(ctx, 1)
	}
	return e, nil
}

// Delete removes one entry immediately, regardless of its deadline.
func (s *RetentionService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteContextEntry(ctx, id)
}

// ListByTag scans a project's entries carrying the tag. Scans never
// bump access counters.
func (s *RetentionService) ListByTag(ctx context.Context, projectID, tag string) ([]contextdna.Entry, error) {
	return s.store.ListContextEntriesByTag(ctx, projectID, tag)
}

// Sweep deletes all expired entries and reports the count downstream.
// Safe to call concurrently and repeatedly.
func (s *RetentionService) Sweep(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	deleted, err := s.store.SweepExpiredContextEntries(ctx, now)
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.SweepDeleted.Add(ctx, deleted)
	}
	if deleted == 0 {
		return 0, nil
	}

	event := ws.RetentionSweptEvent{Deleted: deleted, SweptAt: now.Format(time.RFC3339)}
	if s.queue != nil {
		data, err := json.Marshal(event)
		if err == nil {
			if pubErr := s.queue.Publish(ctx, messagequeue.SubjectRetentionSwept, data); pubErr != nil {
				slog.Error("failed to publish sweep event", "error", pubErr)
			}
		}
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventRetentionSwept, event)
	}

	return deleted, nil
}

// StartSweeper starts a background goroutine that sweeps expired
// entries on the given interval. It stops when ctx is cancelled.
func (s *RetentionService) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Sweep(ctx)
				if err != nil {
					slog.Warn("retention sweep failed", "error", err)
				} else if n > 0 {
					slog.Info("retention sweep removed expired entries", "count", n)
				}
			}
		}
	}()
}
