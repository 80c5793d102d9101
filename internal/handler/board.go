package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/internal/security/audit"
	"github.com/yourorg/jobtrack/internal/security/middleware"
	"github.com/yourorg/jobtrack/internal/service"
	"github.com/yourorg/jobtrack/internal/web"
)

// BoardHandler handles the grouped board view and every application mutation
type BoardHandler struct {
	apps     *service.ApplicationService
	audit    *audit.Logger
	renderer *web.Renderer
	logger   *slog.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(apps *service.ApplicationService, auditLog *audit.Logger, renderer *web.Renderer, logger *slog.Logger) *BoardHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &BoardHandler{
		apps:     apps,
		audit:    auditLog,
		renderer: renderer,
		logger:   logger,
	}
}

type boardPageData struct {
	Flash    web.Flash
	Statuses []domain.Status
	Columns  map[domain.Status][]*domain.Application
}

// statusResult is the JSON body returned by the status-update endpoint
type statusResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Board handles GET /applications
func (h *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())

	board, err := h.apps.Board(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to load board", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	flash, _ := web.PopFlash(w, r)
	h.renderer.Render(w, "applications.html", boardPageData{
		Flash:    flash,
		Statuses: domain.Statuses,
		Columns:  board.Columns,
	})
}

// Add handles POST /add_job
func (h *BoardHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	_, err := h.apps.Add(
		r.Context(),
		identity.UserID,
		r.PostFormValue("company_name"),
		r.PostFormValue("job_title"),
		domain.Status(r.PostFormValue("status")),
		r.PostFormValue("date_applied"),
	)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			web.SetFlash(w, "danger", err.Error())
			http.Redirect(w, r, "/applications", http.StatusSeeOther)
			return
		}
		h.logger.Error("failed to add application", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	web.SetFlash(w, "success", "Job application added!")
	http.Redirect(w, r, "/applications", http.StatusSeeOther)
}

// Delete handles POST /delete_job/{id}
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid application id", http.StatusBadRequest)
		return
	}

	if err := h.apps.Delete(r.Context(), identity.UserID, id); err != nil {
		h.audit.LogDeletion(r.Context(), identity.UserID, id, "failed")
		h.writeError(w, r, identity.UserID, id, err)
		return
	}

	h.audit.LogDeletion(r.Context(), identity.UserID, id, "ok")
	web.SetFlash(w, "info", "Job application removed.")
	http.Redirect(w, r, "/applications", http.StatusSeeOther)
}

// Edit handles POST /edit_job/{id}
func (h *BoardHandler) Edit(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid application id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	err = h.apps.Edit(
		r.Context(),
		identity.UserID,
		id,
		r.PostFormValue("company_name"),
		r.PostFormValue("job_title"),
		domain.Status(r.PostFormValue("status")),
		r.PostFormValue("date_applied"),
	)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			web.SetFlash(w, "danger", err.Error())
			http.Redirect(w, r, "/applications", http.StatusSeeOther)
			return
		}
		h.writeError(w, r, identity.UserID, id, err)
		return
	}

	web.SetFlash(w, "success", "Job application updated successfully!")
	http.Redirect(w, r, "/applications", http.StatusSeeOther)
}

// UpdateStatus handles POST /update_status/{id}. Unlike the other mutations
// it answers JSON rather than a redirect.
func (h *BoardHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())

	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResult{Success: false, Message: "invalid application id"})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResult{Success: false, Message: "invalid request"})
		return
	}

	err = h.apps.UpdateStatus(r.Context(), identity.UserID, id, domain.Status(req.Status))
	switch {
	case errors.Is(err, domain.ErrForbidden):
		h.audit.LogDenied(r.Context(), identity.UserID, id)
		writeJSON(w, http.StatusForbidden, statusResult{Success: false, Message: "Forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, statusResult{Success: false, Message: "Not found"})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, statusResult{Success: false, Message: err.Error()})
	case err != nil:
		h.logger.Error("failed to update status", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, statusResult{Success: false, Message: "internal error"})
	default:
		writeJSON(w, http.StatusOK, statusResult{Success: true, Message: "Status updated"})
	}
}

// writeError maps guard failures for the redirect-oriented mutations.
// Forbidden is a hard 403, never a redirect pretending success.
func (h *BoardHandler) writeError(w http.ResponseWriter, r *http.Request, userID, id int64, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		h.audit.LogDenied(r.Context(), userID, id)
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		h.logger.Error("application mutation failed",
			slog.Int64("application_id", id),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
