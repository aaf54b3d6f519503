package notifications

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the notification feed.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers notification routes. The feed belongs to the
// signed-in user, so authentication is the only gate.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(guard.RequireAuthenticated())
		r.Get("/", h.handleList)
		r.Get("/unread-count", h.handleUnreadCount)
		r.Post("/{id}/read", h.handleMarkRead)
		r.Post("/read-all", h.handleMarkAllRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	unreadOnly := q.Get("unread") == "true"
	items, err := h.service.List(r.Context(), p.ID, unreadOnly, limit, offset)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Notification{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": items})
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	n, err := h.service.UnreadCount(r.Context(), p.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), p.ID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	n, err := h.service.MarkAllRead(r.Context(), p.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"marked": n})
}
