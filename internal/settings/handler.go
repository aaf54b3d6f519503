package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Handler wires HTTP endpoints for console settings.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers settings routes. Any signed-in user may read;
// writes require the manage capability.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.Route("/settings", func(r chi.Router) {
		r.With(guard.RequireAuthenticated()).Get("/", h.handleGet)
		r.With(guard.Require(authz.CapSettingsManage)).Put("/", h.handleUpdate)
	})
}

type updateRequest struct {
	OrgName         string `json:"org_name" validate:"required,max=200"`
	RetentionDays   int    `json:"retention_days" validate:"gte=30,lte=3650"`
	SessionHours    int    `json:"session_hours" validate:"gte=1,lte=168"`
	NotifyOnCase    bool   `json:"notify_on_case"`
	NotifyOnMessage bool   `json:"notify_on_message"`
	MaintenanceNote string `json:"maintenance_note" validate:"max=1000"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("get settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	stored, err := h.service.Update(r.Context(), Settings{
		OrgName:         req.OrgName,
		RetentionDays:   req.RetentionDays,
		SessionHours:    req.SessionHours,
		NotifyOnCase:    req.NotifyOnCase,
		NotifyOnMessage: req.NotifyOnMessage,
		MaintenanceNote: req.MaintenanceNote,
	}, p.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stored)
}
