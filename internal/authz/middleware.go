package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Middleware wires capability guards for HTTP handlers. The principal
// is taken from the request context, where the identity resolver put
// it; a missing principal is denied, never an error.
type Middleware struct {
	Logger *slog.Logger
	// OnDeny observes every capability denial, for metrics.
	OnDeny func(Capability)
}

func (m Middleware) recordDenial(c Capability) {
	if m.OnDeny != nil {
		m.OnDeny(c)
	}
}

// Require admits the request only when the principal holds every
// listed capability. Fail-closed: unresolved principals get 403.
func (m Middleware) Require(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			for _, c := range caps {
				err := Authorize(p, c)
				if err == nil {
					continue
				}
				var denied *AccessDeniedError
				if errors.As(err, &denied) {
					m.recordDenial(denied.Capability)
					httpx.Problem(w, http.StatusForbidden, "Insufficient Permission", denied.Error())
					return
				}
				// Unknown capability is a wiring defect in the route
				// table, not a user condition.
				if m.Logger != nil {
					m.Logger.Error("authz capability misconfigured",
						slog.String("capability", c.String()),
						slog.String("path", r.URL.Path),
						slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny admits the request when the principal holds at least one
// of the listed capabilities.
func (m Middleware) RequireAny(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			p := PrincipalFromContext(r.Context())
			var lastDenied *AccessDeniedError
			for _, c := range caps {
				err := Authorize(p, c)
				if err == nil {
					next.ServeHTTP(w, r)
					return
				}
				var denied *AccessDeniedError
				if errors.As(err, &denied) {
					lastDenied = denied
					continue
				}
				if m.Logger != nil {
					m.Logger.Error("authz capability misconfigured",
						slog.String("capability", c.String()),
						slog.String("path", r.URL.Path),
						slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			m.recordDenial(lastDenied.Capability)
			httpx.Problem(w, http.StatusForbidden, "Insufficient Permission", lastDenied.Error())
		})
	}
}

// RequireAuthenticated admits any resolved principal regardless of
// capabilities. Used for surfaces like settings reads and the
// notification feed.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFromContext(r.Context()) == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
