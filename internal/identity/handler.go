package identity

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
	"github.com/caseguardian/nexus/internal/profiles"
	"github.com/caseguardian/nexus/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	profiles       ProfileSource
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, profileSource ProfileSource, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		profiles:       profileSource,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionResponse struct {
	User        principalPayload `json:"user"`
	CSRFToken   string           `json:"csrf_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Permissions map[string]bool  `json:"permissions"`
}

type principalPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(user.ID)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	profile, err := h.profiles.Get(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("load profile after login", slog.String("user_id", user.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, h.sessionPayload(profile, csrfToken, expiresAt))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// handleMe returns the resolved principal plus its effective
// permission set, the payload the console gates its views with.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if sess != nil {
		csrfToken, _ = h.csrfManager.EnsureToken(r.Context(), sess)
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{
		User: principalPayload{
			ID:    p.ID,
			Name:  p.Name,
			Email: p.Email,
			Role:  p.Role.String(),
		},
		CSRFToken:   csrfToken,
		Permissions: permissionsPayload(p.Permissions()),
	})
}

func (h *Handler) sessionPayload(profile *profiles.Profile, csrfToken string, expiresAt time.Time) sessionResponse {
	p := profile.Principal()
	return sessionResponse{
		User: principalPayload{
			ID:    p.ID,
			Name:  p.Name,
			Email: p.Email,
			Role:  p.Role.String(),
		},
		CSRFToken:   csrfToken,
		ExpiresAt:   expiresAt,
		Permissions: permissionsPayload(p.Permissions()),
	}
}

func permissionsPayload(set authz.PermissionSet) map[string]bool {
	out := make(map[string]bool, len(set))
	for c, v := range set {
		out[c.String()] = v
	}
	return out
}
