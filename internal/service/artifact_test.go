package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildloop/ledger/internal/domain"
	"github.com/buildloop/ledger/internal/domain/artifact"
	"github.com/buildloop/ledger/internal/port/cache"
)

// Ensure mockCache implements cache.Cache at compile time.
var _ cache.Cache = (*mockCache)(nil)

type mockCache struct {
	data map[string][]byte
	sets int
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestArtifactRegister(t *testing.T) {
	store := &mockStore{}
	svc := NewArtifactService(store, nil, nil, 0)

	a, err := svc.Register(context.Background(), &artifact.RegisterRequest{
		ProjectID:      "proj-1",
		ArtifactPath:   "src/main.go",
		ArtifactType:   "source",
		StorageBackend: artifact.BackendS3,
		StoragePath:    "bucket/proj-1/src/main.go",
		FileSizeBytes:  2048,
		ContentHash:    "abc123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected artifact ID to be assigned")
	}
}

func TestArtifactRegisterValidation(t *testing.T) {
	svc := NewArtifactService(&mockStore{}, nil, nil, 0)

	_, err := svc.Register(context.Background(), &artifact.RegisterRequest{
		ProjectID:      "proj-1",
		ArtifactPath:   "src/main.go",
		StorageBackend: "ftp",
		StoragePath:    "x",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown backend, got %v", err)
	}
}

func TestArtifactResolveCacheAside(t *testing.T) {
	store := &mockStore{artifacts: []artifact.Metadata{
		{ID: "art-1", ProjectID: "proj-1", StorageBackend: artifact.BackendLocal, StoragePath: "/data/art-1"},
	}}
	c := &mockCache{}
	svc := NewArtifactService(store, c, nil, time.Minute)

	loc, err := svc.Resolve(context.Background(), "art-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Backend != artifact.BackendLocal || loc.Path != "/data/art-1" {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if c.sets != 1 {
		t.Fatalf("expected the miss to populate the cache, got %d sets", c.sets)
	}

	// Second resolve must come from the cache even if the store fails.
	store.getArtifactErr = errors.New("db down")
	loc, err = svc.Resolve(context.Background(), "art-1")
	if err != nil {
		t.Fatalf("unexpected error on cached resolve: %v", err)
	}
	if loc.Path != "/data/art-1" {
		t.Fatalf("unexpected cached location: %+v", loc)
	}
}

func TestArtifactResolveNotFound(t *testing.T) {
	svc := NewArtifactService(&mockStore{}, &mockCache{}, nil, time.Minute)

	if _, err := svc.Resolve(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
