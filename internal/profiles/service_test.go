package profiles

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
)

type mockRepository struct {
	records map[string]*Profile

	updateErr error
	updates   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{records: map[string]*Profile{}}
}

func (m *mockRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	p, ok := m.records[userID]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", httpx.ErrNotFound, userID)
	}
	clone := *p
	return &clone, nil
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	for _, p := range m.records {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: email %s", httpx.ErrNotFound, email)
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Profile, int, error) {
	var out []Profile
	for _, p := range m.records {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, p Profile) (*Profile, error) {
	clone := p
	m.records[p.UserID] = &clone
	out := clone
	return &out, nil
}

func (m *mockRepository) Update(ctx context.Context, p Profile) (*Profile, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updates++
	clone := p
	m.records[p.UserID] = &clone
	out := clone
	return &out, nil
}

func (m *mockRepository) Delete(ctx context.Context, userID string) error {
	delete(m.records, userID)
	return nil
}

func seedProfile(repo *mockRepository, role authz.Role) {
	repo.records["u1"] = &Profile{
		UserID: "u1",
		Email:  "dana@example.com",
		Role:   role,
		Status: StatusActive,
	}
}

func TestUpdateRoleNotifiesWithConfirmedRecord(t *testing.T) {
	repo := newMockRepository()
	seedProfile(repo, authz.RoleOperator)
	svc := NewService(repo, nil)

	var seen []Profile
	svc.OnChange(func(ctx context.Context, p Profile) {
		seen = append(seen, p)
	})

	updated, err := svc.UpdateRole(context.Background(), "u1", authz.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleManager, updated.Role)

	require.Len(t, seen, 1)
	assert.Equal(t, authz.RoleManager, seen[0].Role)
}

func TestUpdateRolePersistFailureSkipsListeners(t *testing.T) {
	repo := newMockRepository()
	seedProfile(repo, authz.RoleOperator)
	repo.updateErr = fmt.Errorf("connection reset")
	svc := NewService(repo, nil)

	fired := false
	svc.OnChange(func(ctx context.Context, p Profile) { fired = true })

	_, err := svc.UpdateRole(context.Background(), "u1", authz.RoleManager)
	require.Error(t, err)
	assert.False(t, fired, "listeners only see committed changes")
}

func TestUpdateRoleRejectsUnknownRole(t *testing.T) {
	repo := newMockRepository()
	seedProfile(repo, authz.RoleOperator)
	svc := NewService(repo, nil)

	_, err := svc.UpdateRole(context.Background(), "u1", authz.Role("superuser"))
	assert.ErrorIs(t, err, authz.ErrUnknownRole)
	assert.Zero(t, repo.updates)
}

func TestUpdateOverrideRejectsUnknownCapability(t *testing.T) {
	repo := newMockRepository()
	seedProfile(repo, authz.RoleOperator)
	svc := NewService(repo, nil)

	_, err := svc.UpdateOverride(context.Background(), "u1", authz.Override{
		authz.Capability("cases.export"): true,
	})
	assert.ErrorIs(t, err, authz.ErrUnknownCapability)
	assert.Zero(t, repo.updates)
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	repo := newMockRepository()
	seedProfile(repo, authz.RoleOperator)
	svc := NewService(repo, nil)

	var order []string
	svc.OnChange(func(ctx context.Context, p Profile) { order = append(order, "first") })
	svc.OnChange(func(ctx context.Context, p Profile) { order = append(order, "second") })

	_, err := svc.UpdateOverride(context.Background(), "u1", authz.Override{authz.CapReportsView: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestUpdateFieldsDoesNotNotify(t *testing.T) {
	repo := newMockRepository()
	seedProfile(repo, authz.RoleOperator)
	svc := NewService(repo, nil)

	fired := false
	svc.OnChange(func(ctx context.Context, p Profile) { fired = true })

	_, err := svc.UpdateFields(context.Background(), "u1", "Dana", "Reed", "Night Shift", StatusAway)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestGetNormalizesLegacyRole(t *testing.T) {
	repo := newMockRepository()
	seedProfile(repo, authz.Role("supervisor"))
	svc := NewService(repo, nil)

	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, authz.DefaultRole, p.Role)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), Profile{UserID: "u2", Role: authz.Role("supervisor")})
	assert.ErrorIs(t, err, authz.ErrUnknownRole)
}

// A role change made through the service is visible in the permission
// set of the next principal resolved from the store, with no session
// refresh involved.
func TestRoleChangePropagatesToNextResolution(t *testing.T) {
	repo := newMockRepository()
	seedProfile(repo, authz.RoleOperator)
	svc := NewService(repo, nil)

	before, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, before.Principal().Permissions().Has(authz.CapReportsGenerate))

	_, err = svc.UpdateRole(context.Background(), "u1", authz.RoleManager)
	require.NoError(t, err)

	after, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, after.Principal().Permissions().Has(authz.CapReportsGenerate))
}
