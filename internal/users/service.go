package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/identity"
	"github.com/caseguardian/nexus/internal/profiles"
	"github.com/caseguardian/nexus/internal/shared"
)

// Service is the administration surface over accounts: it composes
// credential management with the profile store so every mutation keeps
// the two in step. Access-change notifications ride the profile
// store's change listeners rather than a second path from here.
type Service struct {
	identity *identity.Service
	profiles *profiles.Service
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(ident *identity.Service, prof *profiles.Service, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{identity: ident, profiles: prof, audit: audit, logger: logger}
}

// List returns profiles matching the filter and the total count.
func (s *Service) List(ctx context.Context, filter profiles.ListFilter) ([]profiles.Profile, int, error) {
	return s.profiles.List(ctx, filter)
}

// Get fetches one profile.
func (s *Service) Get(ctx context.Context, userID string) (*profiles.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// Create provisions credentials and the profile record together.
func (s *Service) Create(ctx context.Context, req CreateUserRequest, actorID string) (*profiles.Profile, error) {
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	id := uuid.NewString()
	if _, err := s.identity.Register(ctx, id, req.Email, req.Password); err != nil {
		return nil, err
	}
	created, err := s.profiles.Create(ctx, profiles.Profile{
		UserID:     id,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		Role:       role,
		Status:     profiles.StatusActive,
	})
	if err != nil {
		// Roll back the credential row so the email is not burned.
		if rbErr := s.identity.Remove(ctx, id); rbErr != nil && s.logger != nil {
			s.logger.Error("orphaned credentials after profile create failure",
				slog.String("user_id", id), slog.Any("error", rbErr))
		}
		return nil, err
	}
	s.recordAudit(ctx, actorID, "user.create", id, map[string]any{"email": req.Email, "role": string(role)})
	return created, nil
}

// UpdateProfile changes the display fields of an account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest, actorID string) (*profiles.Profile, error) {
	current, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	firstName := current.FirstName
	lastName := current.LastName
	department := current.Department
	status := current.Status
	if req.FirstName != nil {
		firstName = *req.FirstName
	}
	if req.LastName != nil {
		lastName = *req.LastName
	}
	if req.Department != nil {
		department = *req.Department
	}
	if req.Status != nil {
		status = profiles.Status(*req.Status)
	}
	updated, err := s.profiles.UpdateFields(ctx, userID, firstName, lastName, department, status)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "user.update", userID, nil)
	return updated, nil
}

// AssignRole changes an account's role. The change takes effect on the
// target's next request without re-login.
func (s *Service) AssignRole(ctx context.Context, userID, roleName, actorID string) (*profiles.Profile, error) {
	role, err := authz.ParseRole(roleName)
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	updated, err := s.profiles.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "user.assign_role", userID, map[string]any{"role": string(role)})
	return updated, nil
}

// SetOverride replaces an account's sparse permission override.
func (s *Service) SetOverride(ctx context.Context, userID string, grants map[string]bool, actorID string) (*profiles.Profile, error) {
	override := make(authz.Override, len(grants))
	for name, allowed := range grants {
		cap, err := authz.ParseCapability(name)
		if err != nil {
			return nil, fmt.Errorf("users: %w", err)
		}
		override[cap] = allowed
	}
	updated, err := s.profiles.UpdateOverride(ctx, userID, override)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "user.set_override", userID, map[string]any{"grants": grants})
	return updated, nil
}

// Deactivate blocks sign-in and marks the profile inactive.
func (s *Service) Deactivate(ctx context.Context, userID, actorID string) (*profiles.Profile, error) {
	current, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.identity.SetActive(ctx, userID, false); err != nil {
		return nil, err
	}
	updated, err := s.profiles.UpdateFields(ctx, userID, current.FirstName, current.LastName, current.Department, profiles.StatusInactive)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "user.deactivate", userID, nil)
	return updated, nil
}

// Reactivate restores sign-in and marks the profile active.
func (s *Service) Reactivate(ctx context.Context, userID, actorID string) (*profiles.Profile, error) {
	current, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.identity.SetActive(ctx, userID, true); err != nil {
		return nil, err
	}
	updated, err := s.profiles.UpdateFields(ctx, userID, current.FirstName, current.LastName, current.Department, profiles.StatusActive)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "user.reactivate", userID, nil)
	return updated, nil
}

// Delete removes the account entirely: profile first, credentials last.
func (s *Service) Delete(ctx context.Context, userID, actorID string) error {
	if err := s.profiles.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.identity.Remove(ctx, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "user.delete", userID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
