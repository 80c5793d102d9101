package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/internal/featureflags"
	"github.com/yourorg/jobtrack/internal/observability/metrics"
	"github.com/yourorg/jobtrack/internal/security/audit"
	"github.com/yourorg/jobtrack/internal/security/middleware"
	"github.com/yourorg/jobtrack/internal/service"
	"github.com/yourorg/jobtrack/internal/session"
	"github.com/yourorg/jobtrack/internal/web"
)

// AuthHandler handles the login, registration and logout pages
type AuthHandler struct {
	authService *service.AuthService
	sessions    *session.Manager
	audit       *audit.Logger
	renderer    *web.Renderer
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, sessions *session.Manager, auditLog *audit.Logger, renderer *web.Renderer, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		audit:       auditLog,
		renderer:    renderer,
		logger:      logger,
	}
}

type loginPageData struct {
	Flash web.Flash
}

// Index handles GET /; authenticated users land on the dashboard
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentityFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowLogin handles GET /login
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentityFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	flash, _ := web.PopFlash(w, r)
	h.renderer.Render(w, "login.html", loginPageData{Flash: flash})
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		metrics.ObserveLogin("failed")
		web.SetFlash(w, "danger", "Login unsuccessful. Please check username and password.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := h.sessions.Issue(w, user); err != nil {
		h.logger.Error("failed to issue session", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveLogin("ok")
	h.audit.LogLogin(r.Context(), user.ID, "ok")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentityFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	if featureflags.Enabled("closed_signup") {
		web.SetFlash(w, "danger", "Registration is currently disabled.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	switch {
	case errors.Is(err, domain.ErrUsernameTaken):
		metrics.ObserveRegistration("conflict")
		web.SetFlash(w, "danger", "Username already exists.")
	case errors.Is(err, domain.ErrInvalidInput):
		metrics.ObserveRegistration("invalid")
		web.SetFlash(w, "danger", err.Error())
	case err != nil:
		metrics.ObserveRegistration("error")
		web.SetFlash(w, "danger", "Registration failed. Please try again.")
	default:
		metrics.ObserveRegistration("ok")
		h.audit.LogRegistration(r.Context(), user.ID, "ok")
		web.SetFlash(w, "success", "Your account has been created! You can now log in.")
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout handles GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if identity := middleware.GetIdentityFromContext(r.Context()); identity != nil {
		h.audit.LogLogout(r.Context(), identity.UserID)
	}
	h.sessions.Revoke(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
