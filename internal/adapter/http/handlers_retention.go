package http

import (
	"net/http"

	"github.com/buildloop/ledger/internal/domain/artifact"
	"github.com/buildloop/ledger/internal/domain/contextdna"
	"github.com/buildloop/ledger/internal/domain/memory"
)

// --- Context entries ---

// PutContextEntry handles PUT /api/v1/projects/{id}/context
func (h *Handlers) PutContextEntry(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[contextdna.PutRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = projectID

	e, err := h.Retention.Put(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "context entry upsert failed")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// GetContextEntry handles GET /api/v1/context/{id}. Reading through
// this endpoint counts as an access.
func (h *Handlers) GetContextEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	e, err := h.Retention.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "context entry not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteContextEntry handles DELETE /api/v1/context/{id}
func (h *Handlers) DeleteContextEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Retention.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "context entry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListContextEntries handles GET /api/v1/projects/{id}/context?tag=
func (h *Handlers) ListContextEntries(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, "tag query parameter is required")
		return
	}

	entries, err := h.Retention.ListByTag(r.Context(), projectID, tag)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// SweepRetention handles POST /api/v1/retention/sweep. The periodic
// sweeper covers normal operation; this endpoint exists for operators
// who want an immediate pass.
func (h *Handlers) SweepRetention(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Retention.Sweep(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// --- Agent memory ---

// PutMemory handles PUT /api/v1/projects/{id}/memory
func (h *Handlers) PutMemory(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[memory.PutRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = projectID

	m, err := h.Memory.Put(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "memory upsert failed")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetMemory handles GET /api/v1/memory/{id}. Reading through this
// endpoint counts as an access.
func (h *Handlers) GetMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Memory.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "memory not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListMemories handles GET /api/v1/projects/{id}/memory?agent_id=
func (h *Handlers) ListMemories(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id query parameter is required")
		return
	}

	memories, err := h.Memory.List(r.Context(), projectID, agentID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memories)
}

// --- Artifacts ---

// RegisterArtifact handles POST /api/v1/projects/{id}/artifacts
func (h *Handlers) RegisterArtifact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[artifact.RegisterRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = projectID

	m, err := h.Artifacts.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "artifact registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// GetArtifact handles GET /api/v1/artifacts/{id}
func (h *Handlers) GetArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Artifacts.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "artifact not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ResolveArtifact handles GET /api/v1/artifacts/{id}/resolve
func (h *Handlers) ResolveArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	loc, err := h.Artifacts.Resolve(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "artifact not found")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// ListArtifacts handles GET /api/v1/projects/{id}/artifacts
func (h *Handlers) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	artifacts, err := h.Artifacts.List(r.Context(), projectID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifacts)
}
