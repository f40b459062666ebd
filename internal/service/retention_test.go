package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildloop/ledger/internal/domain"
	"github.com/buildloop/ledger/internal/domain/contextdna"
	"github.com/buildloop/ledger/internal/port/messagequeue"
)

// mockQueue implements messagequeue.Queue for testing.
type mockQueue struct {
	published []struct {
		subject string
		data    []byte
	}
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Close() error { return nil }

func entryExpiring(id string, at time.Time) contextdna.Entry {
	return contextdna.Entry{ID: id, ProjectID: "proj-1", ContextKey: "key-" + id, ExpiresAt: &at}
}

func TestRetentionPutDefaultsRetention(t *testing.T) {
	store := &mockStore{}
	svc := NewRetentionService(store, nil, nil, nil, 0)

	e, err := svc.Put(context.Background(), &contextdna.PutRequest{
		ProjectID:   "proj-1",
		ContextKey:  "build/plan",
		ContextType: "decision",
		Content:     "use postgres",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.RetentionDays != contextdna.DefaultRetentionDays {
		t.Fatalf("expected default retention %d, got %d", contextdna.DefaultRetentionDays, e.RetentionDays)
	}
	if e.ExpiresAt == nil {
		t.Fatal("expected an expiry to be derived")
	}
	want := time.Now().UTC().Add(30 * 24 * time.Hour)
	if diff := e.ExpiresAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expiry %v not near %v", e.ExpiresAt, want)
	}
}

func TestRetentionPutValidation(t *testing.T) {
	svc := NewRetentionService(&mockStore{}, nil, nil, nil, 30)

	_, err := svc.Put(context.Background(), &contextdna.PutRequest{
		ProjectID:   "proj-1",
		ContextType: "decision",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing context_key, got %v", err)
	}
}

func TestRetentionPutKeepsExpiryWhenRetentionUnchanged(t *testing.T) {
	store := &mockStore{}
	svc := NewRetentionService(store, nil, nil, nil, 30)

	req := &contextdna.PutRequest{
		ProjectID:   "proj-1",
		ContextKey:  "build/plan",
		ContextType: "decision",
		Content:     "v1",
	}
	first, err := svc.Put(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstExpiry := *first.ExpiresAt

	req.Content = "v2"
	second, err := svc.Put(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Content != "v2" {
		t.Fatalf("expected content updated, got %q", second.Content)
	}
	if !second.ExpiresAt.Equal(firstExpiry) {
		t.Fatalf("content-only update must not move the expiry: %v vs %v", second.ExpiresAt, firstExpiry)
	}
}

func TestRetentionGetBumpsAccess(t *testing.T) {
	store := &mockStore{entries: []contextdna.Entry{
		{ID: "ctx-1", ProjectID: "proj-1", ContextKey: "build/plan"},
	}}
	svc := NewRetentionService(store, nil, nil, nil, 30)

	e, err := svc.Get(context.Background(), "ctx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.AccessCount != 1 {
		t.Fatalf("expected access count 1, got %d", e.AccessCount)
	}
	if e.AccessedAt == nil {
		t.Fatal("expected accessed_at to be set")
	}

	e, err = svc.Get(context.Background(), "ctx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.AccessCount != 2 {
		t.Fatalf("expected access count 2, got %d", e.AccessCount)
	}
}

func TestRetentionGetNotFound(t *testing.T) {
	svc := NewRetentionService(&mockStore{}, nil, nil, nil, 30)

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRetentionListByTag(t *testing.T) {
	store := &mockStore{entries: []contextdna.Entry{
		{ID: "ctx-1", ProjectID: "proj-1", ContextKey: "a", Tags: []string{"auth", "api"}},
		{ID: "ctx-2", ProjectID: "proj-1", ContextKey: "b", Tags: []string{"db"}},
		{ID: "ctx-3", ProjectID: "proj-2", ContextKey: "c", Tags: []string{"auth"}},
	}}
	svc := NewRetentionService(store, nil, nil, nil, 30)

	entries, err := svc.ListByTag(context.Background(), "proj-1", "auth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "ctx-1" {
		t.Fatalf("expected only ctx-1, got %+v", entries)
	}
	if entries[0].AccessCount != 0 {
		t.Fatal("tag scans must not bump access counters")
	}
}

func TestRetentionSweepPublishes(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	store := &mockStore{entries: []contextdna.Entry{
		entryExpiring("ctx-1", past),
		entryExpiring("ctx-2", past),
		entryExpiring("ctx-3", future),
		{ID: "ctx-4", ProjectID: "proj-1", ContextKey: "pinned"},
	}}
	queue := &mockQueue{}
	svc := NewRetentionService(store, queue, nil, nil, 30)

	deleted, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	if len(store.entries) != 2 {
		t.Fatalf("expected 2 surviving entries, got %d", len(store.entries))
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected 1 publish call, got %d", len(queue.published))
	}
	if queue.published[0].subject != messagequeue.SubjectRetentionSwept {
		t.Fatalf("expected subject %q, got %q", messagequeue.SubjectRetentionSwept, queue.published[0].subject)
	}
}

func TestRetentionSweepSilentWhenEmpty(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	store := &mockStore{entries: []contextdna.Entry{entryExpiring("ctx-1", future)}}
	queue := &mockQueue{}
	svc := NewRetentionService(store, queue, nil, nil, 30)

	deleted, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deleted, got %d", deleted)
	}
	if len(queue.published) != 0 {
		t.Fatalf("no-op sweep must not publish, got %d calls", len(queue.published))
	}
}

func TestRetentionSweepStoreFailure(t *testing.T) {
	store := &mockStore{sweepErr: errors.New("connection reset")}
	svc := NewRetentionService(store, &mockQueue{}, nil, nil, 30)

	if _, err := svc.Sweep(context.Background()); err == nil {
		t.Fatal("expected sweep error to propagate")
	}
}
