//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

func postJSON(t *testing.T, path string, body map[string]any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(testServer.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// TestAuditAPIFlow drives a run through the HTTP surface against the
// real database: start, transition, complete, and verify the stored
// score and duration come back derived.
func TestAuditAPIFlow(t *testing.T) {
	cleanDB(testPool)

	resp := postJSON(t, "/api/v1/projects", map[string]any{"name": "api-flow"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d", resp.StatusCode)
	}
	var proj map[string]any
	decodeInto(t, resp, &proj)
	projID, _ := proj["id"].(string)
	if projID == "" {
		t.Fatal("expected non-empty project ID")
	}

	resp = postJSON(t, "/api/v1/projects/"+projID+"/audits", map[string]any{
		"audit_type": "quality",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start run: expected 201, got %d", resp.StatusCode)
	}
	var run map[string]any
	decodeInto(t, resp, &run)
	runID, _ := run["id"].(string)
	if run["status"] != "pending" {
		t.Fatalf("fresh run status = %v, want pending", run["status"])
	}

	req, _ := http.NewRequest(http.MethodPut, testServer.URL+"/api/v1/audits/"+runID+"/status",
		bytes.NewReader([]byte(`{"status":"in_progress"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("transition run: %v", err)
	}
	_ = resp2.Body.Close()
	if resp2.StatusCode != http.StatusNoContent {
		t.Fatalf("transition: expected 204, got %d", resp2.StatusCode)
	}

	resp = postJSON(t, "/api/v1/audits/"+runID+"/complete", map[string]any{
		"status": "completed",
		"counts": map[string]any{
			"total_checks":   10,
			"passed_checks":  7,
			"failed_checks":  2,
			"warning_checks": 1,
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete run: expected 200, got %d", resp.StatusCode)
	}
	var completed map[string]any
	decodeInto(t, resp, &completed)
	if score, _ := completed["overall_score"].(float64); score != 75.0 {
		t.Fatalf("overall_score = %v, want 75", completed["overall_score"])
	}
	if completed["duration_seconds"] == nil {
		t.Fatal("expected duration_seconds on completed run")
	}
}
