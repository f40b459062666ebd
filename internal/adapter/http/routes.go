package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Projects
		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{id}", h.GetProject)
		r.Put("/projects/{id}/status", h.UpdateProjectStatus)
		r.Delete("/projects/{id}", h.DeleteProject)

		// Agents (nested under projects)
		r.Get("/projects/{id}/agents", h.ListAgents)
		r.Post("/projects/{id}/agents", h.CreateAgent)

		// Agents (direct access)
		r.Get("/agents/{id}", h.GetAgent)
		r.Put("/agents/{id}/status", h.UpdateAgentStatus)
		r.Post("/agents/{id}/heartbeat", h.AgentHeartbeat)
		r.Delete("/agents/{id}", h.DeleteAgent)

		// Tasks
		r.Get("/projects/{id}/tasks", h.ListTasks)
		r.Post("/projects/{id}/tasks", h.CreateTask)
		r.Get("/tasks/{id}", h.GetTask)
		r.Put("/tasks/{id}/status", h.UpdateTaskStatus)
		r.Put("/tasks/{id}/progress", h.UpdateTaskProgress)

		// Agent logs
		r.Post("/projects/{id}/logs", h.AppendLog)
		r.Get("/projects/{id}/logs", h.ListLogs)

		// Context entries (retention store)
		r.Put("/projects/{id}/context", h.PutContextEntry)
		r.Get("/projects/{id}/context", h.ListContextEntries)
		r.Get("/context/{id}", h.GetContextEntry)
		r.Delete("/context/{id}", h.DeleteContextEntry)
		r.Post("/retention/sweep", h.SweepRetention)

		// Agent memory
		r.Put("/projects/{id}/memory", h.PutMemory)
		r.Get("/projects/{id}/memory", h.ListMemories)
		r.Get("/memory/{id}", h.GetMemory)

		// Artifact references
		r.Post("/projects/{id}/artifacts", h.RegisterArtifact)
		r.Get("/projects/{id}/artifacts", h.ListArtifacts)
		r.Get("/artifacts/{id}", h.GetArtifact)
		r.Get("/artifacts/{id}/resolve", h.ResolveArtifact)

		// Audit ledger
		r.Post("/projects/{id}/audits", h.StartAuditRun)
		r.Get("/projects/{id}/audits", h.ListAuditRuns)
		r.Get("/audits/{id}", h.GetAuditRun)
		r.Put("/audits/{id}/status", h.TransitionAuditRun)
		r.Post("/audits/{id}/complete", h.CompleteAuditRun)
		r.Post("/audits/{id}/findings", h.RecordFinding)
		r.Get("/audits/{id}/findings", h.ListFindings)
		r.Post("/audits/{id}/compliance", h.RecordComplianceCheck)
		r.Get("/audits/{id}/compliance", h.ListComplianceChecks)

		// Export ledger
		r.Post("/projects/{id}/exports", h.RecordExport)
		r.Get("/projects/{id}/exports", h.ListExports)
	})
}
