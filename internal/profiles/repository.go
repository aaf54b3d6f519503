package profiles

import (
	"context"

	"github.com/caseguardian/nexus/internal/authz"
)

// ListFilter narrows List results. Zero value lists everything.
type ListFilter struct {
	Search string
	Role   *authz.Role
	Status *Status
	Limit  int
	Offset int
}

// Repository defines persistence operations for profile records.
type Repository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	List(ctx context.Context, filter ListFilter) ([]Profile, int, error)
	Create(ctx context.Context, p Profile) (*Profile, error)
	Update(ctx context.Context, p Profile) (*Profile, error)
	Delete(ctx context.Context, userID string) error
}
