package profiles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caseguardian/nexus/internal/authz"
)

// ChangeListener receives the fresh profile after a role or override
// update has been committed. Listeners run synchronously in update
// order, so any permission set derived after an update reflects it.
type ChangeListener func(ctx context.Context, p Profile)

// Service owns profile reads and writes. Writes follow a two-phase
// shape: the store confirms first, listeners and callers see the
// confirmed record after. There is no optimistic local copy that can
// diverge from the store.
type Service struct {
	repo      Repository
	logger    *slog.Logger
	listeners []ChangeListener
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// OnChange registers a listener for committed role/override updates.
// Registration happens during wiring, before the service is shared.
func (s *Service) OnChange(fn ChangeListener) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

// Get fetches a profile. Unknown stored roles are normalized to the
// default role here, logged once, so every caller sees a valid role.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.normalizeRole(p)
	return p, nil
}

// GetByEmail fetches a profile by email address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	s.normalizeRole(p)
	return p, nil
}

// List returns profiles matching the filter and the total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Profile, int, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		s.normalizeRole(&items[i])
	}
	return items, total, nil
}

// Create inserts a new profile. The role must belong to the closed
// enumeration; writes never accept values reads would have to repair.
func (s *Service) Create(ctx context.Context, p Profile) (*Profile, error) {
	if !p.Role.Known() {
		return nil, fmt.Errorf("%w: %q", authz.ErrUnknownRole, p.Role)
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	return s.repo.Create(ctx, p)
}

// UpdateFields updates display fields without touching authorization
// data, so no change listeners fire.
func (s *Service) UpdateFields(ctx context.Context, userID, firstName, lastName, department string, status Status) (*Profile, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	current.FirstName = firstName
	current.LastName = lastName
	current.Department = department
	if status != "" {
		current.Status = status
	}
	return s.repo.Update(ctx, *current)
}

// UpdateRole persists a role change and then notifies listeners with
// the confirmed record.
func (s *Service) UpdateRole(ctx context.Context, userID string, role authz.Role) (*Profile, error) {
	if !role.Known() {
		return nil, fmt.Errorf("%w: %q", authz.ErrUnknownRole, role)
	}
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	current.Role = role
	updated, err := s.repo.Update(ctx, *current)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, *updated)
	return updated, nil
}

// UpdateOverride replaces the sparse permission override and then
// notifies listeners with the confirmed record. Capabilities outside
// the closed enumeration are rejected rather than stored.
func (s *Service) UpdateOverride(ctx context.Context, userID string, override authz.Override) (*Profile, error) {
	for c := range override {
		if !c.Known() {
			return nil, fmt.Errorf("%w: %q", authz.ErrUnknownCapability, c)
		}
	}
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	current.Override = override
	updated, err := s.repo.Update(ctx, *current)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, *updated)
	return updated, nil
}

// Delete removes the profile record.
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

func (s *Service) notify(ctx context.Context, p Profile) {
	for _, fn := range s.listeners {
		fn(ctx, p)
	}
}

func (s *Service) normalizeRole(p *Profile) {
	if p == nil || p.Role.Known() {
		return
	}
	normalized, err := authz.ParseRole(string(p.Role))
	if s.logger != nil {
		s.logger.Warn("profile role outside enumeration, using default",
			slog.String("user_id", p.UserID),
			slog.String("stored_role", string(p.Role)),
			slog.Any("error", err))
	}
	p.Role = normalized
}
