package reports

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseguardian/nexus/internal/authz"
)

func TestRefreshDelegatesToSnapshotRequester(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var requestedBy string
	calls := 0
	h := NewHandler(logger, nil, func(ctx context.Context, by string) error {
		calls++
		requestedBy = by
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/reports/refresh", nil)
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(),
		&authz.Principal{ID: "u1", Role: authz.RoleManager}))
	rr := httptest.NewRecorder()
	h.handleRefresh(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, 1, calls)
	assert.Equal(t, "u1", requestedBy)
}

func TestRefreshRunsInlineWithoutRequester(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, cleanup := newTestService(t, &mockRepo{total: 2, open: 1})
	defer cleanup()
	h := NewHandler(logger, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/reports/refresh", nil)
	rr := httptest.NewRecorder()
	h.handleRefresh(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
}
