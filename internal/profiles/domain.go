package profiles

import (
	"time"

	"github.com/caseguardian/nexus/internal/authz"
)

// Profile is the stored account record backing a principal: identity
// fields plus the role and sparse permission override that the
// permission model derives from.
type Profile struct {
	UserID     string         `json:"user_id"`
	Email      string         `json:"email"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Department string         `json:"department"`
	Role       authz.Role     `json:"role"`
	Override   authz.Override `json:"override,omitempty"`
	Status     Status         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Status tracks account availability, display data only.
type Status string

const (
	StatusActive   Status = "active"
	StatusAway     Status = "away"
	StatusInactive Status = "inactive"
)

// DisplayName joins the name fields, falling back to the email address
// the way the console shows accounts without names.
func (p Profile) DisplayName() string {
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return p.Email
	}
	return name
}

// Principal builds the authorization view of this profile. The
// returned value is a fresh copy each call; permission derivation
// happens inside authz when the principal is queried.
func (p Profile) Principal() *authz.Principal {
	var override authz.Override
	if len(p.Override) > 0 {
		override = make(authz.Override, len(p.Override))
		for c, v := range p.Override {
			override[c] = v
		}
	}
	return &authz.Principal{
		ID:       p.UserID,
		Name:     p.DisplayName(),
		Email:    p.Email,
		Role:     p.Role,
		Override: override,
	}
}
