package authz

import "context"

// Principal is the authenticated actor a request runs as. It is built
// fresh from the profile store on every resolution and replaced
// wholesale on change; nothing mutates it in place.
type Principal struct {
	ID       string
	Name     string
	Email    string
	Role     Role
	Override Override
}

// Permissions derives the principal's effective permission set. The
// result is recomputed on every call, so a principal rebuilt from an
// updated profile is never served a stale set.
func (p *Principal) Permissions() PermissionSet {
	if p == nil {
		return Derive(DefaultRole, nil)
	}
	return Derive(p.Role, p.Override)
}

// HasCapability answers a point authorization query. A nil principal
// (unauthenticated or not yet resolved) is denied everything. Unknown
// capability names return ErrUnknownCapability so misspelled checks
// surface in tests instead of silently deciding either way.
func HasCapability(p *Principal, c Capability) (bool, error) {
	if !c.Known() {
		return false, ErrUnknownCapability
	}
	if p == nil {
		return false, nil
	}
	return p.Permissions().Has(c), nil
}

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, nil when unresolved.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
