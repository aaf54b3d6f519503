package messages

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Handler wires HTTP endpoints for messaging.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers messaging routes guarded by the capability middleware.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.Route("/messages", func(r chi.Router) {
		r.Use(guard.Require(authz.CapMessagesView))
		r.Get("/conversations", h.handleConversations)
		r.Get("/unread-count", h.handleUnreadCount)
		r.Get("/with/{peerID}", h.handleThread)
		r.Post("/with/{peerID}/read", h.handleMarkRead)
		r.Post("/", h.handleSend)
	})
}

type sendRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Body        string `json:"body" validate:"required,max=4000"`
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	created, err := h.service.Send(r.Context(), p.ID, req.RecipientID, req.Body)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

type threadResponse struct {
	Messages []Message `json:"messages"`
}

func (h *Handler) handleThread(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	items, err := h.service.Thread(r.Context(), p.ID, chi.URLParam(r, "peerID"), limit, offset)
	if err != nil {
		h.logger.Error("list thread", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Message{}
	}
	httpx.JSON(w, http.StatusOK, threadResponse{Messages: items})
}

func (h *Handler) handleConversations(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	items, err := h.service.Conversations(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("list conversations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Conversation{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"conversations": items})
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
	n, err := h.service.MarkRead(r.Context(), p.ID, chi.URLParam(r, "peerID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"marked": n})
}
