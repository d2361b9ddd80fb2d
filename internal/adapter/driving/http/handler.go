// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/complykit/supascope/internal/adapter/driven/supabase"
	"github.com/complykit/supascope/internal/application"
	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

// Handler serves the supascope REST API.
type Handler struct {
	integrationSvc *application.IntegrationService
	evidenceSvc    *application.EvidenceService
	projects       driven.ProjectStore
	users          driven.UserStore
	tables         driven.TableStore
	logger         *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	integrationSvc *application.IntegrationService,
	evidenceSvc *application.EvidenceService,
	projects driven.ProjectStore,
	users driven.UserStore,
	tables driven.TableStore,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		integrationSvc: integrationSvc,
		evidenceSvc:    evidenceSvc,
		projects:       projects,
		users:          users,
		tables:         tables,
		logger:         logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with auth, logging, and recovery middleware.
func NewServeMux(h *Handler, resolver driven.CustomerResolver, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/supabase/integration", h.GetIntegration)
	mux.HandleFunc("PUT /api/v1/supabase/integration", h.PutIntegration)
	mux.HandleFunc("DELETE /api/v1/supabase/integration", h.DeleteIntegration)
	mux.HandleFunc("POST /api/v1/supabase/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/supabase/projects", h.ListProjects)
	mux.HandleFunc("GET /api/v1/supabase/users", h.ListUsers)
	mux.HandleFunc("GET /api/v1/supabase/tables", h.ListTables)
	mux.HandleFunc("POST /api/v1/supabase/evidence", h.CollectEvidence)
	mux.HandleFunc("GET /api/v1/supabase/evidence/{check}", h.GetEvidence)

	// Recovery innermost so panics are caught before logging; auth outermost
	// so unauthenticated requests never reach a handler.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = authMiddleware(resolver, wrapped)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("GET /api/v1/health", h.Health)
	healthMux.Handle("/", wrapped)

	return healthMux
}

// GetIntegration reports whether the calling customer has an active integration.
func (h *Handler) GetIntegration(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	integrated, err := h.integrationSvc.IsIntegrated(r.Context(), customerID)
	if err != nil {
		h.writeDomainError(w, r, "check integration", err)
		return
	}

	writeJSON(w, http.StatusOK, integrationResponse{Integrated: integrated})
}

// PutIntegration stores the supplied access token and runs a full refresh.
func (h *Handler) PutIntegration(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	var req integrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a non-empty token")
		return
	}

	if err := h.integrationSvc.Integrate(r.Context(), customerID, req.Token); err != nil {
		h.writeDomainError(w, r, "integrate", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "supabase integrated successfully"})
}

// DeleteIntegration removes the credential and all reconciled mirrors.
// Historical evidence is retained.
func (h *Handler) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	if err := h.integrationSvc.Remove(r.Context(), customerID); err != nil {
		h.writeDomainError(w, r, "remove integration", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "supabase integration removed successfully"})
}

// Refresh reconciles the customer's mirrors with live Supabase state.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	if err := h.integrationSvc.Refresh(r.Context(), customerID); err != nil {
		h.writeDomainError(w, r, "refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "supabase refreshed successfully"})
}

// ListProjects returns the reconciled project mirror.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	projects, err := h.projects.ListByCustomer(r.Context(), customerID)
	if err != nil {
		h.writeDomainError(w, r, "list projects", err)
		return
	}

	resp := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListUsers returns the reconciled user mirror.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	users, err := h.users.ListByCustomer(r.Context(), customerID)
	if err != nil {
		h.writeDomainError(w, r, "list users", err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListTables returns the reconciled table mirror.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	tables, err := h.tables.ListByCustomer(r.Context(), customerID)
	if err != nil {
		h.writeDomainError(w, r, "list tables", err)
		return
	}

	resp := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		resp = append(resp, toTableResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CollectEvidence refreshes live state and then freezes one snapshot per
// check type as a single batch.
func (h *Handler) CollectEvidence(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	if err := h.integrationSvc.Refresh(r.Context(), customerID); err != nil {
		h.writeDomainError(w, r, "refresh before evidence", err)
		return
	}
	if err := h.evidenceSvc.Collect(r.Context(), customerID); err != nil {
		h.writeDomainError(w, r, "collect evidence", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "evidence collected successfully"})
}

// GetEvidence returns a stored snapshot for the check type in the path.
// The optional "at" query parameter (RFC3339) selects a capture timestamp;
// absent or unknown values select the most recent capture.
func (h *Handler) GetEvidence(w http.ResponseWriter, r *http.Request) {
	customerID := customerFrom(r.Context())

	checkType := model.CheckType(r.PathValue("check"))
	if !checkType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown check type")
		return
	}

	var at *time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be an RFC3339 timestamp")
			return
		}
		at = &parsed
	}

	result, err := h.evidenceSvc.Get(r.Context(), customerID, checkType, at)
	if err != nil {
		h.writeDomainError(w, r, "get evidence", err)
		return
	}

	writeJSON(w, http.StatusOK, toEvidenceResponse(result))
}

// Health is a liveness endpoint for container orchestration.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

// writeDomainError maps domain errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var apiErr *supabase.APIError

	switch {
	case errors.Is(err, driven.ErrNotIntegrated):
		writeError(w, http.StatusNotFound, "supabase integration not configured")
	case errors.Is(err, driven.ErrNoEvidence):
		writeError(w, http.StatusNotFound, "no evidence collected for this check type")
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		writeError(w, http.StatusServiceUnavailable, "credential storage is not configured")
	case errors.As(err, &apiErr):
		h.logger.Error("supabase API error", "op", op, "status", apiErr.StatusCode, "path", apiErr.Path)
		writeError(w, http.StatusBadGateway, "supabase API request failed")
	default:
		h.logger.Error("request failed", "op", op, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
