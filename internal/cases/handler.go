package cases

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Handler wires HTTP endpoints for case intake and workflow.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers case routes guarded by the capability middleware.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.Route("/cases", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.CapCasesView))
			r.Get("/", h.handleList)
			r.Get("/{id}", h.handleGet)
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.CapCasesManage))
			r.Post("/", h.handleCreate)
			r.Patch("/{id}", h.handleUpdate)
			r.Post("/{id}/transition", h.handleTransition)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

type listResponse struct {
	Cases []Case `json:"cases"`
	Total int    `json:"total"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	req := listRequestFromQuery(r)
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list cases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Case{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Cases: items, Total: total})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
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
		h.logger.Error("create case", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateCaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	updated, err := h.service.Transition(r.Context(), chi.URLParam(r, "id"), Status(req.Status), actorID(r))
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
			return
		}
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

func listRequestFromQuery(r *http.Request) ListCasesRequest {
	q := r.URL.Query()
	req := ListCasesRequest{Limit: 50}
	if v := q.Get("search"); v != "" {
		req.Search = &v
	}
	if v := q.Get("status"); v != "" {
		st := Status(v)
		req.Status = &st
	}
	if v := q.Get("priority"); v != "" {
		p := Priority(v)
		req.Priority = &p
	}
	if v := q.Get("type"); v != "" {
		t := Type(v)
		req.Type = &t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Offset = n
		}
	}
	return req
}

func actorID(r *http.Request) string {
	if p := authz.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return ""
}
