package reports

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// SnapshotRequester schedules a background snapshot rebuild on behalf
// of a user.
type SnapshotRequester func(ctx context.Context, requestedBy string) error

// Handler wires HTTP endpoints for the reporting surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	snapshots SnapshotRequester
}

// NewHandler constructs a Handler instance. snapshots may be nil, in
// which case refresh runs inline.
func NewHandler(logger *slog.Logger, service *Service, snapshots SnapshotRequester) *Handler {
	return &Handler{logger: logger, service: service, snapshots: snapshots}
}

// MountRoutes registers report routes. Reading cached aggregates needs
// the view capability; forcing regeneration and exports need generate.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.Route("/reports", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.CapReportsView))
			r.Get("/dashboard", h.handleDashboard)
			r.Get("/breakdown/{column}", h.handleBreakdown)
			r.Get("/trend", h.handleTrend)
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.CapReportsGenerate))
			r.Post("/refresh", h.handleRefresh)
			r.Get("/export/dashboard.csv", h.handleExportDashboard)
			r.Get("/export/trend.csv", h.handleExportTrend)
		})
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Breakdown(r.Context(), chi.URLParam(r, "column"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Breakdown", err.Error())
		return
	}
	if entries == nil {
		entries = []BreakdownEntry{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	points, err := h.service.Trend(r.Context(), months)
	if err != nil {
		h.logger.Error("trend", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if points == nil {
		points = []TrendPoint{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"points": points})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.snapshots != nil {
		var actor string
		if p := authz.PrincipalFromContext(r.Context()); p != nil {
			actor = p.ID
		}
		err := h.snapshots(r.Context(), actor)
		if err == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		h.logger.Warn("snapshot enqueue failed, refreshing inline", slog.Any("error", err))
	}
	if err := h.service.Invalidate(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Warm(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleExportDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.csv"`)
	if err := WriteDashboardCSV(w, dash); err != nil {
		h.logger.Error("export dashboard", slog.Any("error", err))
	}
}

func (h *Handler) handleExportTrend(w http.ResponseWriter, r *http.Request) {
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	points, err := h.service.Trend(r.Context(), months)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trend.csv"`)
	if err := WriteTrendCSV(w, points); err != nil {
		h.logger.Error("export trend", slog.Any("error", err))
	}
}
