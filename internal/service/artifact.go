package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/buildloop/ledger/internal/adapter/otel"
	"github.com/buildloop/ledger/internal/domain/artifact"
	"github.com/buildloop/ledger/internal/port/cache"
	"github.com/buildloop/ledger/internal/port/database"
)

// ArtifactService handles artifact reference registration and
// resolution. Resolution is read-heavy and immutable after insert, so
// locations are served cache-aside from the in-process cache.
type ArtifactService struct {
	store    database.Store
	cache    cache.Cache
	metrics  *otel.Metrics
	cacheTTL time.Duration
}

// NewArtifactService creates a new ArtifactService. cache and metrics
// may be nil.
func NewArtifactService(store database.Store, c cache.Cache, metrics *otel.Metrics, cacheTTL time.Duration) *ArtifactService {
	return &ArtifactService{store: store, cache: c, metrics: metrics, cacheTTL: cacheTTL}
}

// Register records a pointer to externally stored content. The ledger
// never touches the bytes themselves.
func (s *ArtifactService) Register(ctx context.Context, req *artifact.RegisterRequest) (*artifact.Metadata, error) {
	if err := artifact.ValidateRegisterRequest(req); err != nil {
		return nil, err
	}
	return s.store.RegisterArtifact(ctx, *req)
}

// Get returns an artifact pointer by ID.
func (s *ArtifactService) Get(ctx context.Context, id string) (*artifact.Metadata, error) {
	return s.store.GetArtifact(ctx, id)
}

// List returns a project's artifact pointers, newest first.
func (s *ArtifactService) List(ctx context.Context, projectID string) ([]artifact.Metadata, error) {
	return s.store.ListArtifacts(ctx, projectID)
}

// Resolve returns the storage location for an artifact. Locations never
// change once registered, so cache entries only expire, never go stale.
func (s *ArtifactService) Resolve(ctx context.Context, id string) (*artifact.Location, error) {
	key := "artifact:" + id

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var loc artifact.Location
			if err := json.Unmarshal(data, &loc); err == nil {
				if s.metrics != nil {
					s.metrics.ArtifactHits.Add(ctx, 1)
				}
				return &loc, nil
			}
		}
	}

	m, err := s.store.GetArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ArtifactMisses.Add(ctx, 1)
	}

	loc := &artifact.Location{Backend: m.StorageBackend, Path: m.StoragePath}
	if s.cache != nil {
		if data, err := json.Marshal(loc); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}
	return loc, nil
}
