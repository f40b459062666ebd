package http

import (
	"net/http"
	"strconv"

	"github.com/buildloop/ledger/internal/domain/agent"
	"github.com/buildloop/ledger/internal/domain/agentlog"
	"github.com/buildloop/ledger/internal/domain/project"
	"github.com/buildloop/ledger/internal/domain/task"
	"github.com/buildloop/ledger/internal/service"
)

// Handlers bundles all services exposed over HTTP.
type Handlers struct {
	Projects  *service.ProjectService
	Agents    *service.AgentService
	Tasks     *service.TaskService
	Logs      *service.LogService
	Retention *service.RetentionService
	Memory    *service.MemoryService
	Artifacts *service.ArtifactService
	Audits    *service.AuditService
	Exports   *service.ExportService
}

// --- Projects ---

// ListProjects handles GET /api/v1/projects
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Projects.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetProject handles GET /api/v1/projects/{id}
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Projects.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProject handles POST /api/v1/projects
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[project.CreateRequest](w, r)
	if !ok {
		return
	}

	p, err := h.Projects.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "project creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProjectStatus handles PUT /api/v1/projects/{id}/status
func (h *Handlers) UpdateProjectStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[project.StatusUpdate](w, r)
	if !ok {
		return
	}

	p, err := h.Projects.UpdateStatus(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/v1/projects/{id}
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Projects.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Agents ---

// ListAgents handles GET /api/v1/projects/{id}/agents
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	agents, err := h.Agents.List(r.Context(), projectID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// GetAgent handles GET /api/v1/agents/{id}
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	a, err := h.Agents.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreateAgent handles POST /api/v1/projects/{id}/agents
func (h *Handlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[agent.CreateRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = projectID

	a, err := h.Agents.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "agent registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// UpdateAgentStatus handles PUT /api/v1/agents/{id}/status
func (h *Handlers) UpdateAgentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[struct {
		Status agent.Status `json:"status"`
	}](w, r)
	if !ok {
		return
	}

	if err := h.Agents.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AgentHeartbeat handles POST /api/v1/agents/{id}/heartbeat
func (h *Handlers) AgentHeartbeat(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Agents.Heartbeat(r.Context(), id); err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAgent handles DELETE /api/v1/agents/{id}
func (h *Handlers) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Agents.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Tasks ---

// ListTasks handles GET /api/v1/projects/{id}/tasks
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	tasks, err := h.Tasks.List(r.Context(), projectID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GetTask handles GET /api/v1/tasks/{id}
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Tasks.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTask handles POST /api/v1/projects/{id}/tasks
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[task.CreateRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = projectID

	t, err := h.Tasks.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "task creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTaskStatus handles PUT /api/v1/tasks/{id}/status
func (h *Handlers) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[struct {
		Status task.Status    `json:"status"`
		Result map[string]any `json:"result,omitempty"`
		Error  string         `json:"error,omitempty"`
	}](w, r)
	if !ok {
		return
	}

	if err := h.Tasks.UpdateStatus(r.Context(), id, req.Status, req.Result, req.Error); err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTaskProgress handles PUT /api/v1/tasks/{id}/progress
func (h *Handlers) UpdateTaskProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[struct {
		Progress int `json:"progress"`
	}](w, r)
	if !ok {
		return
	}

	if err := h.Tasks.UpdateProgress(r.Context(), id, req.Progress); err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Agent logs ---

// AppendLog handles POST /api/v1/projects/{id}/logs
func (h *Handlers) AppendLog(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[agentlog.AppendRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = projectID

	e, err := h.Logs.Append(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "log append failed")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// ListLogs handles GET /api/v1/projects/{id}/logs?level=&limit=
func (h *Handlers) ListLogs(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	level := agentlog.Level(r.URL.Query().Get("level"))
	if level != "" && !agentlog.ValidLevel(level) {
		writeError(w, http.StatusBadRequest, "unknown log level")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.Logs.List(r.Context(), projectID, level, limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
