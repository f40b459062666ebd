//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/buildloop/ledger/internal/domain/contextdna"
	"github.com/buildloop/ledger/internal/domain/project"
)

func mustCreateProject(t *testing.T, name string) *project.Project {
	t.Helper()
	p, err := testStore.CreateProject(context.Background(), project.CreateRequest{Name: name})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

// TestSweepIdempotence verifies that a second sweep with no intervening
// writes deletes nothing, and that unexpired rows are never touched.
func TestSweepIdempotence(t *testing.T) {
	cleanDB(testPool)
	ctx := context.Background()
	p := mustCreateProject(t, "sweep-test")

	now := time.Now().UTC()
	expired := now.Add(-time.Hour)
	alive := now.Add(24 * time.Hour)

	for i, exp := range []time.Time{expired, expired, alive} {
		_, err := testStore.PutContextEntry(ctx, contextdna.PutRequest{
			ProjectID:     p.ID,
			ContextKey:    []string{"stale-a", "stale-b", "fresh"}[i],
			ContextType:   "analysis",
			Content:       "body",
			RetentionDays: 1,
		}, exp)
		if err != nil {
			t.Fatalf("put entry %d: %v", i, err)
		}
	}

	deleted, err := testStore.SweepExpiredContextEntries(ctx, now)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("first sweep deleted %d, want 2", deleted)
	}

	deleted, err = testStore.SweepExpiredContextEntries(ctx, now)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("second sweep deleted %d, want 0", deleted)
	}

	// The unexpired entry survived both passes.
	var remaining int
	if err := testPool.QueryRow(ctx,
		"SELECT count(*) FROM context_dna_entries WHERE project_id = $1", p.ID,
	).Scan(&remaining); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("surviving entries = %d, want 1", remaining)
	}
}

// TestContextEntryAccessBump verifies the counter semantics at the real
// store: N gets bump access_count by exactly N, tag scans by zero.
func TestContextEntryAccessBump(t *testing.T) {
	cleanDB(testPool)
	ctx := context.Background()
	p := mustCreateProject(t, "access-test")

	now := time.Now().UTC()
	e, err := testStore.PutContextEntry(ctx, contextdna.PutRequest{
		ProjectID:     p.ID,
		ContextKey:    "counted",
		ContextType:   "analysis",
		Content:       "body",
		Tags:          []string{"hot"},
		RetentionDays: 30,
	}, now.Add(30*24*time.Hour))
	if err != nil {
		t.Fatalf("put entry: %v", err)
	}
	if e.AccessCount != 0 {
		t.Fatalf("fresh entry access_count = %d, want 0", e.AccessCount)
	}

	for i := 1; i <= 3; i++ {
		got, err := testStore.GetContextEntry(ctx, e.ID, now)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if got.AccessCount != int64(i) {
			t.Fatalf("access_count after get %d = %d, want %d", i, got.AccessCount, i)
		}
	}

	// Filtered scans must not count as access.
	if _, err := testStore.ListContextEntriesByTag(ctx, p.ID, "hot"); err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	got, err := testStore.GetContextEntry(ctx, e.ID, now)
	if err != nil {
		t.Fatalf("get after scan: %v", err)
	}
	if got.AccessCount != 4 {
		t.Fatalf("access_count after scan + get = %d, want 4", got.AccessCount)
	}
}

// TestPutRecomputesExpiryOnRetentionChange verifies the upsert keeps the
// original expiry when retention_days is unchanged and recomputes it
// from the update time when it changes.
func TestPutRecomputesExpiryOnRetentionChange(t *testing.T) {
	cleanDB(testPool)
	ctx := context.Background()
	p := mustCreateProject(t, "expiry-test")

	t0 := time.Now().UTC()
	req := contextdna.PutRequest{
		ProjectID:     p.ID,
		ContextKey:    "k1",
		ContextType:   "analysis",
		Content:       "v1",
		RetentionDays: 30,
	}
	e1, err := testStore.PutContextEntry(ctx, req, contextdna.ExpiryFrom(t0, 30))
	if err != nil {
		t.Fatalf("initial put: %v", err)
	}

	// Same retention: content updates, expiry stays.
	req.Content = "v2"
	e2, err := testStore.PutContextEntry(ctx, req, contextdna.ExpiryFrom(t0.Add(time.Hour), 30))
	if err != nil {
		t.Fatalf("same-retention put: %v", err)
	}
	if !e2.ExpiresAt.Equal(*e1.ExpiresAt) {
		t.Fatalf("expiry moved on unchanged retention: %v -> %v", e1.ExpiresAt, e2.ExpiresAt)
	}

	// Shorter retention: expiry recomputed from the update time.
	t1 := t0.Add(time.Hour)
	req.RetentionDays = 7
	e3, err := testStore.PutContextEntry(ctx, req, contextdna.ExpiryFrom(t1, 7))
	if err != nil {
		t.Fatalf("retention-change put: %v", err)
	}
	// Compare with millisecond slack: timestamptz stores microseconds.
	want := contextdna.ExpiryFrom(t1, 7)
	if d := e3.ExpiresAt.Sub(want); d < -time.Millisecond || d > time.Millisecond {
		t.Fatalf("expiry after retention change = %v, want %v", e3.ExpiresAt, want)
	}
	if e3.ID != e1.ID {
		t.Fatalf("upsert created a new row: %s vs %s", e3.ID, e1.ID)
	}
}
