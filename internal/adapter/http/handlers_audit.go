package http

import (
	"net/http"

	"github.com/buildloop/ledger/internal/domain/audit"
	"github.com/buildloop/ledger/internal/domain/export"
	"github.com/buildloop/ledger/internal/service"
)

// --- Audit runs ---

// StartAuditRun handles POST /api/v1/projects/{id}/audits
func (h *Handlers) StartAuditRun(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[service.StartRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = projectID

	run, err := h.Audits.StartRun(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "audit run creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// GetAuditRun handles GET /api/v1/audits/{id}
func (h *Handlers) GetAuditRun(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	run, err := h.Audits.GetRun(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "audit run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ListAuditRuns handles GET /api/v1/projects/{id}/audits?type=
func (h *Handlers) ListAuditRuns(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	auditType := audit.Type(r.URL.Query().Get("type"))

	runs, err := h.Audits.ListRuns(r.Context(), projectID, auditType)
	if err != nil {
		writeDomainError(w, err, "audit run listing failed")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// TransitionAuditRun handles PUT /api/v1/audits/{id}/status
func (h *Handlers) TransitionAuditRun(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[struct {
		Status audit.Status `json:"status"`
	}](w, r)
	if !ok {
		return
	}

	if err := h.Audits.TransitionRun(r.Context(), id, req.Status); err != nil {
		writeDomainError(w, err, "audit run not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteAuditRun handles POST /api/v1/audits/{id}/complete
func (h *Handlers) CompleteAuditRun(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[service.CompleteRequest](w, r)
	if !ok {
		return
	}

	run, err := h.Audits.CompleteRun(r.Context(), id, &req)
	if err != nil {
		writeDomainError(w, err, "audit run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// --- Findings ---

// RecordFinding handles POST /api/v1/audits/{id}/findings
func (h *Handlers) RecordFinding(w http.ResponseWriter, r *http.Request) {
	runID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	f, ok := readJSON[audit.Finding](w, r)
	if !ok {
		return
	}

	stored, err := h.Audits.RecordFinding(r.Context(), runID, &f)
	if err != nil {
		writeDomainError(w, err, "audit run not found")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// ListFindings handles GET /api/v1/audits/{id}/findings
func (h *Handlers) ListFindings(w http.ResponseWriter, r *http.Request) {
	runID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	findings, err := h.Audits.ListFindings(r.Context(), runID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, findings)
}

// --- Compliance checks ---

// RecordComplianceCheck handles POST /api/v1/audits/{id}/compliance
func (h *Handlers) RecordComplianceCheck(w http.ResponseWriter, r *http.Request) {
	runID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	c, ok := readJSON[audit.ComplianceCheck](w, r)
	if !ok {
		return
	}

	stored, err := h.Audits.RecordComplianceCheck(r.Context(), runID, &c)
	if err != nil {
		writeDomainError(w, err, "audit run not found")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// ListComplianceChecks handles GET /api/v1/audits/{id}/compliance
func (h *Handlers) ListComplianceChecks(w http.ResponseWriter, r *http.Request) {
	runID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	checks, err := h.Audits.ListComplianceChecks(r.Context(), runID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checks)
}

// --- Exports ---

// RecordExport handles POST /api/v1/projects/{id}/exports
func (h *Handlers) RecordExport(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[export.RecordRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = projectID

	l, err := h.Exports.Record(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "export record failed")
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// ListExports handles GET /api/v1/projects/{id}/exports
func (h *Handlers) ListExports(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	logs, err := h.Exports.List(r.Context(), projectID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
