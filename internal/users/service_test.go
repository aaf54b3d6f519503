package users

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/identity"
	"github.com/caseguardian/nexus/internal/platform/httpx"
	"github.com/caseguardian/nexus/internal/profiles"
)

type stubIdentityRepo struct {
	users     map[string]*identity.User
	createErr error
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{users: map[string]*identity.User{}}
}

func (s *stubIdentityRepo) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (s *stubIdentityRepo) CreateUser(ctx context.Context, id, email, passwordHash string) (*identity.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	u := &identity.User{ID: id, Email: email, PasswordHash: passwordHash, IsActive: true}
	s.users[id] = u
	return u, nil
}

func (s *stubIdentityRepo) SetActive(ctx context.Context, id string, active bool) error {
	u, ok := s.users[id]
	if !ok {
		return httpx.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (s *stubIdentityRepo) DeleteUser(ctx context.Context, id string) error {
	delete(s.users, id)
	return nil
}

func (s *stubIdentityRepo) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubIdentityRepo) DeleteSession(ctx context.Context, id string) error { return nil }

type stubProfileRepo struct {
	records   map[string]*profiles.Profile
	createErr error
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{records: map[string]*profiles.Profile{}}
}

func (s *stubProfileRepo) Get(ctx context.Context, userID string) (*profiles.Profile, error) {
	p, ok := s.records[userID]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", httpx.ErrNotFound, userID)
	}
	clone := *p
	return &clone, nil
}

func (s *stubProfileRepo) GetByEmail(ctx context.Context, email string) (*profiles.Profile, error) {
	for _, p := range s.records {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (s *stubProfileRepo) List(ctx context.Context, filter profiles.ListFilter) ([]profiles.Profile, int, error) {
	var out []profiles.Profile
	for _, p := range s.records {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (s *stubProfileRepo) Create(ctx context.Context, p profiles.Profile) (*profiles.Profile, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	clone := p
	s.records[p.UserID] = &clone
	out := clone
	return &out, nil
}

func (s *stubProfileRepo) Update(ctx context.Context, p profiles.Profile) (*profiles.Profile, error) {
	clone := p
	s.records[p.UserID] = &clone
	out := clone
	return &out, nil
}

func (s *stubProfileRepo) Delete(ctx context.Context, userID string) error {
	delete(s.records, userID)
	return nil
}

// changeRecorder captures profile change listener invocations the way
// the wiring in cmd/nexus registers a notification listener.
type changeRecorder struct {
	changes []profiles.Profile
}

func (r *changeRecorder) record(ctx context.Context, p profiles.Profile) {
	r.changes = append(r.changes, p)
}

func newTestService() (*Service, *stubIdentityRepo, *stubProfileRepo, *changeRecorder) {
	identRepo := newStubIdentityRepo()
	profRepo := newStubProfileRepo()
	profSvc := profiles.NewService(profRepo, nil)
	recorder := &changeRecorder{}
	profSvc.OnChange(recorder.record)
	svc := NewService(
		identity.NewService(identRepo),
		profSvc,
		nil,
		nil,
	)
	return svc, identRepo, profRepo, recorder
}

func TestCreateProvisionsCredentialsAndProfile(t *testing.T) {
	svc, identRepo, profRepo, _ := newTestService()

	created, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "kim@example.com",
		Password: "long-enough-pass",
		Role:     "operator",
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleOperator, created.Role)
	assert.Equal(t, profiles.StatusActive, created.Status)

	require.Len(t, identRepo.users, 1)
	require.Len(t, profRepo.records, 1)
	assert.Contains(t, profRepo.records, created.UserID)
}

func TestCreateRollsBackCredentialsOnProfileFailure(t *testing.T) {
	svc, identRepo, profRepo, _ := newTestService()
	profRepo.createErr = errors.New("unique violation")

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "kim@example.com",
		Password: "long-enough-pass",
		Role:     "operator",
	}, "admin-1")
	require.Error(t, err)
	assert.Empty(t, identRepo.users, "credential row removed after rollback")
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc, identRepo, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "kim@example.com",
		Password: "long-enough-pass",
		Role:     "supervisor",
	}, "admin-1")
	assert.ErrorIs(t, err, authz.ErrUnknownRole)
	assert.Empty(t, identRepo.users)
}

func TestAssignRoleReachesChangeListeners(t *testing.T) {
	svc, _, profRepo, recorder := newTestService()
	profRepo.records["u1"] = &profiles.Profile{
		UserID: "u1", Email: "kim@example.com", Role: authz.RoleOperator, Status: profiles.StatusActive,
	}

	updated, err := svc.AssignRole(context.Background(), "u1", "manager", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleManager, updated.Role)
	require.Len(t, recorder.changes, 1)
	assert.Equal(t, "u1", recorder.changes[0].UserID)
	assert.Equal(t, authz.RoleManager, recorder.changes[0].Role)
}

func TestSetOverrideReachesChangeListeners(t *testing.T) {
	svc, _, profRepo, recorder := newTestService()
	profRepo.records["u1"] = &profiles.Profile{
		UserID: "u1", Email: "kim@example.com", Role: authz.RoleOperator, Status: profiles.StatusActive,
	}

	_, err := svc.SetOverride(context.Background(), "u1", map[string]bool{"reports.view": true}, "admin-1")
	require.NoError(t, err)
	require.Len(t, recorder.changes, 1)
	assert.True(t, recorder.changes[0].Override[authz.CapReportsView])
}

func TestSetOverrideRejectsUnknownCapability(t *testing.T) {
	svc, _, profRepo, recorder := newTestService()
	profRepo.records["u1"] = &profiles.Profile{
		UserID: "u1", Email: "kim@example.com", Role: authz.RoleOperator, Status: profiles.StatusActive,
	}

	_, err := svc.SetOverride(context.Background(), "u1", map[string]bool{"cases.export": true}, "admin-1")
	assert.ErrorIs(t, err, authz.ErrUnknownCapability)
	assert.Empty(t, recorder.changes)
}

func TestSetOverrideDerivedEffect(t *testing.T) {
	svc, _, profRepo, _ := newTestService()
	profRepo.records["u1"] = &profiles.Profile{
		UserID: "u1", Email: "kim@example.com", Role: authz.RoleOperator, Status: profiles.StatusActive,
	}

	updated, err := svc.SetOverride(context.Background(), "u1", map[string]bool{"reports.view": true}, "admin-1")
	require.NoError(t, err)
	assert.True(t, updated.Principal().Permissions().Has(authz.CapReportsView))
}

func TestDeactivateBlocksSignInAndMarksProfile(t *testing.T) {
	svc, identRepo, profRepo, _ := newTestService()
	identRepo.users["u1"] = &identity.User{ID: "u1", Email: "kim@example.com", IsActive: true}
	profRepo.records["u1"] = &profiles.Profile{
		UserID: "u1", Email: "kim@example.com", Role: authz.RoleOperator, Status: profiles.StatusActive,
	}

	updated, err := svc.Deactivate(context.Background(), "u1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, profiles.StatusInactive, updated.Status)
	assert.False(t, identRepo.users["u1"].IsActive)
}

func TestDeleteRemovesBothRecords(t *testing.T) {
	svc, identRepo, profRepo, _ := newTestService()
	identRepo.users["u1"] = &identity.User{ID: "u1", Email: "kim@example.com", IsActive: true}
	profRepo.records["u1"] = &profiles.Profile{
		UserID: "u1", Email: "kim@example.com", Role: authz.RoleOperator, Status: profiles.StatusActive,
	}

	require.NoError(t, svc.Delete(context.Background(), "u1", "admin-1"))
	assert.Empty(t, identRepo.users)
	assert.Empty(t, profRepo.records)
}
