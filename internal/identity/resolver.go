package identity

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/profiles"
	"github.com/caseguardian/nexus/internal/shared"
)

// ProfileSource yields the stored profile backing a principal.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*profiles.Profile, error)
}

// Resolver turns the request session into an authz.Principal in the
// request context. The principal is rebuilt from the profile store on
// every request, so a committed role or override change is visible to
// the very next capability check; no permission data is cached across
// requests.
type Resolver struct {
	Profiles ProfileSource
	Logger   *slog.Logger
}

// Middleware resolves the principal for downstream guards. Requests
// without a usable session or profile proceed with no principal, which
// every capability check treats as denied.
func (rs Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := shared.SessionFromContext(ctx)
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		profile, err := rs.Profiles.Get(ctx, sess.User())
		if err != nil {
			if rs.Logger != nil {
				rs.Logger.Warn("resolve principal",
					slog.String("user_id", sess.User()),
					slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx = authz.ContextWithPrincipal(ctx, profile.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
