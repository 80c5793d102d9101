package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/jobtrack/internal/chart"
	"github.com/yourorg/jobtrack/internal/security/middleware"
	"github.com/yourorg/jobtrack/internal/service"
	"github.com/yourorg/jobtrack/internal/web"
)

// DashboardHandler renders the summary stats, charts and recent list
type DashboardHandler struct {
	reports  *service.ReportService
	renderer *web.Renderer
	logger   *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(reports *service.ReportService, renderer *web.Renderer, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &DashboardHandler{
		reports:  reports,
		renderer: renderer,
		logger:   logger,
	}
}

type dashboardPageData struct {
	Username     string
	Theme        string
	Flash        web.Flash
	Summary      *service.Summary
	Page         *service.Page
	PrevPage     int
	NextPage     int
	StatusChart  template.HTML
	CompanyChart template.HTML
}

// ServeHTTP handles GET /dashboard?page=N
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	summary, err := h.reports.Summary(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to compute summary", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	recent, err := h.reports.Recent(r.Context(), identity.UserID, page)
	if err != nil {
		h.logger.Error("failed to load recent applications", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	theme := chart.ThemeLight
	if cookie, err := r.Cookie("theme"); err == nil {
		theme = chart.ParseTheme(cookie.Value)
	}

	var statusSVG, companySVG string
	if summary.Total > 0 {
		statusPoints, err := h.reports.StatusChart(r.Context(), identity.UserID)
		if err != nil {
			h.logger.Error("failed to build status chart", slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		companyPoints, err := h.reports.CompanyChart(r.Context(), identity.UserID)
		if err != nil {
			h.logger.Error("failed to build company chart", slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		statusSVG = chart.StatusBars(statusPoints, theme)
		companySVG = chart.CompanyBars(companyPoints, theme)
	}

	flash, _ := web.PopFlash(w, r)
	h.renderer.Render(w, "dashboard.html", dashboardPageData{
		Username:     identity.Username,
		Theme:        string(theme),
		Flash:        flash,
		Summary:      summary,
		Page:         recent,
		PrevPage:     page - 1,
		NextPage:     page + 1,
		StatusChart:  template.HTML(statusSVG),
		CompanyChart: template.HTML(companySVG),
	})
}
