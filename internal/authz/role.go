package authz

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a named permission grouping. The enumeration is closed:
// profile records carrying anything else are treated as DefaultRole.
type Role string

const (
	// RoleAdmin holds every capability.
	RoleAdmin Role = "admin"
	// RoleManager runs day-to-day case work and reporting but cannot
	// administer users or settings.
	RoleManager Role = "manager"
	// RoleOperator has view-only access to cases and messages.
	RoleOperator Role = "operator"
)

// DefaultRole is the fallback for unknown role values. It is the
// lowest-privilege role so that bad data fails safe, not open.
const DefaultRole = RoleOperator

// ErrUnknownRole indicates a role value outside the closed enumeration.
// Callers recover by falling back to DefaultRole; the error exists so
// the anomaly can be logged.
var ErrUnknownRole = errors.New("authz: unknown role")

var roleIndex = map[Role]struct{}{
	RoleAdmin:    {},
	RoleManager:  {},
	RoleOperator: {},
}

// Roles returns the closed role enumeration.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleOperator}
}

// ParseRole normalizes a role string. Unknown values return DefaultRole
// together with ErrUnknownRole so callers can log the fallback.
func ParseRole(name string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(name)))
	if _, ok := roleIndex[r]; !ok {
		return DefaultRole, fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
	return r, nil
}

// Known reports whether r belongs to the closed enumeration.
func (r Role) Known() bool {
	_, ok := roleIndex[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}
