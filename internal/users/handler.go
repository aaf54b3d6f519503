package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
	"github.com/caseguardian/nexus/internal/profiles"
)

// Handler wires HTTP endpoints for account administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers account routes guarded by the capability middleware.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.CapUsersView))
			r.Get("/", h.handleList)
			r.Get("/{id}", h.handleGet)
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.CapUsersManage))
			r.Post("/", h.handleCreate)
			r.Patch("/{id}", h.handleUpdate)
			r.Put("/{id}/role", h.handleAssignRole)
			r.Put("/{id}/override", h.handleSetOverride)
			r.Post("/{id}/deactivate", h.handleDeactivate)
			r.Post("/{id}/reactivate", h.handleReactivate)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

type listResponse struct {
	Users []profiles.Profile `json:"users"`
	Total int                `json:"total"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := profiles.ListFilter{Search: q.Get("search"), Limit: 50}
	if v := q.Get("role"); v != "" {
		role, err := authz.ParseRole(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
			return
		}
		filter.Role = &role
	}
	if v := q.Get("status"); v != "" {
		st := profiles.Status(v)
		filter.Status = &st
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []profiles.Profile{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Users: items, Total: total})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), req, actorID(r))
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	updated, err := h.service.UpdateProfile(r.Context(), chi.URLParam(r, "id"), req, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	updated, err := h.service.AssignRole(r.Context(), chi.URLParam(r, "id"), req.Role, actorID(r))
	if err != nil {
		if errors.Is(err, authz.ErrUnknownRole) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Role", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req SetOverrideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	updated, err := h.service.SetOverride(r.Context(), chi.URLParam(r, "id"), req.Grants, actorID(r))
	if err != nil {
		if errors.Is(err, authz.ErrUnknownCapability) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Capability", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.Reactivate(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func actorID(r *http.Request) string {
	if p := authz.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return ""
}
