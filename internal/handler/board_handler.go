package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"planboard/internal/domain"
	"planboard/internal/middleware"
	"planboard/internal/service"
	"planboard/pkg/errors"
	"planboard/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// BoardHandler exposes the editing session operations over HTTP. Every
// route is scoped to one session id; the handler itself is stateless.
type BoardHandler struct {
	editor *service.EditorService
	logger *logger.Logger
}

func NewBoardHandler(editor *service.EditorService, log *logger.Logger) *BoardHandler {
	return &BoardHandler{
		editor: editor,
		logger: log,
	}
}

// Load handles POST /api/sessions/{sessionID}/load
func (h *BoardHandler) Load(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Version int `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.NewValidationError("Invalid request body", nil))
		return
	}
	if req.Version <= 0 {
		h.respondError(w, r, errors.NewValidationError("A positive version is required", nil))
		return
	}

	view, err := h.editor.Load(r.Context(), sessionID, req.Version)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Board handles GET /api/sessions/{sessionID}/board
func (h *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	view, err := h.editor.Board(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Drop handles POST /api/sessions/{sessionID}/drop
func (h *BoardHandler) Drop(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var ev domain.DropEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		h.respondError(w, r, errors.NewValidationError("Invalid request body", nil))
		return
	}
	if ev.EntityID == "" {
		h.respondError(w, r, errors.NewValidationError("entity_id is required", nil))
		return
	}

	view, err := h.editor.Drop(r.Context(), sessionID, ev)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Split handles POST /api/sessions/{sessionID}/split
func (h *BoardHandler) Split(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		TeamID domain.EntityID `json:"team_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.NewValidationError("Invalid request body", nil))
		return
	}
	if req.TeamID == "" {
		h.respondError(w, r, errors.NewValidationError("team_id is required", nil))
		return
	}

	view, err := h.editor.Split(r.Context(), sessionID, req.TeamID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Stage handles POST /api/sessions/{sessionID}/stage
func (h *BoardHandler) Stage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		EntityID domain.EntityID `json:"entity_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.NewValidationError("Invalid request body", nil))
		return
	}
	if req.EntityID == "" {
		h.respondError(w, r, errors.NewValidationError("entity_id is required", nil))
		return
	}

	view, err := h.editor.Stage(r.Context(), sessionID, h.actor(r), req.EntityID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Unstage handles POST /api/sessions/{sessionID}/unstage
func (h *BoardHandler) Unstage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		EntityID domain.EntityID `json:"entity_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.NewValidationError("Invalid request body", nil))
		return
	}

	view, err := h.editor.Unstage(r.Context(), sessionID, req.EntityID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Save handles POST /api/sessions/{sessionID}/save
func (h *BoardHandler) Save(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Force bool `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.NewValidationError("Invalid request body", nil))
		return
	}

	view, err := h.editor.Save(r.Context(), sessionID, h.actor(r), req.Force)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// ReleasePreflight handles GET /api/sessions/{sessionID}/release/preflight
func (h *BoardHandler) ReleasePreflight(w http.ResponseWriter, r *http.Request) {
	issues, err := h.editor.ReleasePreflight(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, issues)
}

// Release handles POST /api/sessions/{sessionID}/release
func (h *BoardHandler) Release(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.editor.Release(r.Context(), sessionID, h.actor(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// Unrelease handles POST /api/sessions/{sessionID}/unrelease
func (h *BoardHandler) Unrelease(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.editor.Unrelease(r.Context(), sessionID, h.actor(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "unreleased"})
}

// Reload handles POST /api/sessions/{sessionID}/reload
func (h *BoardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	view, err := h.editor.Reload(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Audit handles GET /api/audit
func (h *BoardHandler) Audit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, r, errors.NewValidationError("limit must be a number", nil))
			return
		}
		limit = parsed
	}

	entries, err := h.editor.RecentAudit(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"actions": entries})
}

func (h *BoardHandler) actor(r *http.Request) string {
	if op, ok := middleware.OperatorFromContext(r.Context()); ok {
		return op.Subject
	}
	return "anonymous"
}

func (h *BoardHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *BoardHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalError("Unexpected error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	} else {
		h.logger.WithError(err).WithField("path", r.URL.Path).Debug("Request rejected")
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if requestID, ok := r.Context().Value(middleware.RequestIDContextKey).(string); ok {
		response.Error.RequestID = requestID
	}

	h.respondJSON(w, appErr.StatusCode, response)
}
