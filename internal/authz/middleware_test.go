package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithPrincipal(p *Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/cases", nil)
	if p == nil {
		return req
	}
	return req.WithContext(ContextWithPrincipal(req.Context(), p))
}

func TestRequireAdmitsHolder(t *testing.T) {
	m := Middleware{}
	hit := false
	handler := m.Require(CapCasesView)(okHandler(&hit))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleOperator}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, hit)
}

func TestRequireDeniesMissingCapability(t *testing.T) {
	m := Middleware{}
	hit := false
	handler := m.Require(CapUsersManage)(okHandler(&hit))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleManager}))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, hit)
	assert.Contains(t, rr.Body.String(), "users.manage")
}

func TestRequireDeniesWithoutPrincipal(t *testing.T) {
	m := Middleware{}
	hit := false
	handler := m.Require(CapCasesView)(okHandler(&hit))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, hit)
}

func TestRequireUnknownCapabilityIsServerError(t *testing.T) {
	m := Middleware{}
	hit := false
	handler := m.Require(Capability("cases.export"))(okHandler(&hit))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleAdmin}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, hit)
}

func TestRequireAnyAdmitsPartialHolder(t *testing.T) {
	m := Middleware{}
	hit := false
	handler := m.RequireAny(CapSettingsManage, CapCasesView)(okHandler(&hit))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleOperator}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, hit)
}

func TestRequireAnyDeniesWhenNoneHeld(t *testing.T) {
	m := Middleware{}
	hit := false
	handler := m.RequireAny(CapSettingsManage, CapUsersManage)(okHandler(&hit))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleOperator}))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, hit)
}

func TestDenialHookObservesCapability(t *testing.T) {
	var observed []Capability
	m := Middleware{OnDeny: func(c Capability) { observed = append(observed, c) }}
	hit := false

	handler := m.Require(CapUsersManage)(okHandler(&hit))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleManager}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, []Capability{CapUsersManage}, observed)

	observed = nil
	handler = m.Require(CapCasesView)(okHandler(&hit))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleManager}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, observed, "granted requests do not report denials")

	handler = m.RequireAny(CapSettingsManage, CapUsersManage)(okHandler(&hit))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleOperator}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, []Capability{CapUsersManage}, observed)
}

func TestRequireAuthenticated(t *testing.T) {
	m := Middleware{}
	hit := false
	handler := m.RequireAuthenticated()(okHandler(&hit))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithPrincipal(&Principal{ID: "u1", Role: RoleOperator}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, hit)
}
