package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeGranted(t *testing.T) {
	p := &Principal{ID: "u1", Role: RoleAdmin}
	assert.NoError(t, Authorize(p, CapSettingsManage))
}

func TestAuthorizeDeniedCarriesCapability(t *testing.T) {
	p := &Principal{ID: "u1", Role: RoleOperator}
	err := Authorize(p, CapUsersManage)
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, CapUsersManage, denied.Capability)
	assert.Contains(t, denied.Error(), "users.manage")
}

func TestAuthorizeNilPrincipalFailsClosed(t *testing.T) {
	err := Authorize(nil, CapCasesView)
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
}

func TestAuthorizeUnknownCapabilityIsHardError(t *testing.T) {
	p := &Principal{ID: "u1", Role: RoleAdmin}
	err := Authorize(p, Capability("cases.export"))
	assert.ErrorIs(t, err, ErrUnknownCapability)
	var denied *AccessDeniedError
	assert.False(t, errors.As(err, &denied), "misconfiguration is not a denial")
}

func TestGuardRunsOperationExactlyOnce(t *testing.T) {
	p := &Principal{ID: "u1", Role: RoleManager}
	calls := 0
	err := Guard(p, CapCasesManage, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGuardNeverInvokesOperationOnDenial(t *testing.T) {
	p := &Principal{ID: "u1", Role: RoleOperator}
	calls := 0
	err := Guard(p, CapSettingsManage, func() error {
		calls++
		return nil
	})
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Zero(t, calls)
}

func TestGuardPassesOperationErrorThrough(t *testing.T) {
	p := &Principal{ID: "u1", Role: RoleAdmin}
	opErr := errors.New("boom")
	assert.ErrorIs(t, Guard(p, CapCasesManage, func() error { return opErr }), opErr)
}

func TestPrincipalPermissionsRecomputedPerCall(t *testing.T) {
	p := &Principal{ID: "u1", Role: RoleOperator}
	assert.False(t, p.Permissions().Has(CapReportsView))

	// A role change is visible on the very next query without any
	// refresh step.
	p.Role = RoleManager
	assert.True(t, p.Permissions().Has(CapReportsView))

	p.Override = Override{CapReportsView: false}
	assert.False(t, p.Permissions().Has(CapReportsView))
}

func TestHasCapabilityNilPrincipal(t *testing.T) {
	ok, err := HasCapability(nil, CapCasesView)
	require.NoError(t, err)
	assert.False(t, ok)
}
