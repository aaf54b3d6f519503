package cases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseguardian/nexus/internal/platform/httpx"
)

type mockRepository struct {
	records  map[string]*Case
	sequence int64

	createErr error
	updateErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{records: map[string]*Case{}}
}

func (m *mockRepository) Create(ctx context.Context, c Case) (*Case, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := c
	m.records[c.ID] = &clone
	out := clone
	return &out, nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (*Case, error) {
	c, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: case %s", httpx.ErrNotFound, id)
	}
	clone := *c
	return &clone, nil
}

func (m *mockRepository) GetByNumber(ctx context.Context, number string) (*Case, error) {
	for _, c := range m.records {
		if c.Number == number {
			clone := *c
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: case number %s", httpx.ErrNotFound, number)
}

func (m *mockRepository) List(ctx context.Context, req ListCasesRequest) ([]Case, int, error) {
	var out []Case
	for _, c := range m.records {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(ctx context.Context, c Case) (*Case, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	c.UpdatedAt = time.Now()
	clone := c
	m.records[c.ID] = &clone
	out := clone
	return &out, nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	delete(m.records, id)
	return nil
}

func (m *mockRepository) NextSequence(ctx context.Context, year int) (int64, error) {
	m.sequence++
	return m.sequence, nil
}

type recordedEvent struct {
	action string
	caseID string
}

type mockEvents struct {
	events []recordedEvent
}

func (m *mockEvents) CaseChanged(ctx context.Context, action string, c Case, actorID string) {
	m.events = append(m.events, recordedEvent{action: action, caseID: c.ID})
}

func newTestService() (*Service, *mockRepository, *mockEvents) {
	repo := newMockRepository()
	events := &mockEvents{}
	svc := NewService(repo, nil, events, nil)
	svc.WithNow(func() time.Time {
		return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	})
	return svc, repo, events
}

func createRequest() CreateCaseRequest {
	return CreateCaseRequest{
		Description: "Missing stock in aisle 4",
		Type:        string(TypeTheft),
		Priority:    string(PriorityHigh),
		Location:    "Warehouse B",
		IncidentAt:  time.Date(2026, time.March, 9, 22, 15, 0, 0, time.UTC),
	}
}

func TestCreateAssignsSequencedNumber(t *testing.T) {
	svc, _, events := newTestService()

	first, err := svc.Create(context.Background(), createRequest(), "actor-1")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), createRequest(), "actor-1")
	require.NoError(t, err)

	assert.Equal(t, "CGN-2026-00001", first.Number)
	assert.Equal(t, "CGN-2026-00002", second.Number)
	assert.Equal(t, StatusNew, first.Status)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	require.Len(t, events.events, 2)
	assert.Equal(t, "created", events.events[0].action)
}

func TestTransitionFollowsWorkflow(t *testing.T) {
	svc, _, _ := newTestService()
	created, err := svc.Create(context.Background(), createRequest(), "actor-1")
	require.NoError(t, err)

	inProgress, err := svc.Transition(context.Background(), created.ID, StatusInProgress, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, inProgress.Status)

	closed, err := svc.Transition(context.Background(), created.ID, StatusClosed, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)

	reopened, err := svc.Transition(context.Background(), created.ID, StatusInProgress, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, reopened.Status)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	svc, _, events := newTestService()
	created, err := svc.Create(context.Background(), createRequest(), "actor-1")
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), created.ID, StatusClosed, "actor-1")
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), created.ID, StatusNew, "actor-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// created + transitioned only; the rejected move emits nothing.
	assert.Len(t, events.events, 2)
}

func TestTransitionToCurrentStatusIsNoop(t *testing.T) {
	svc, _, events := newTestService()
	created, err := svc.Create(context.Background(), createRequest(), "actor-1")
	require.NoError(t, err)

	same, err := svc.Transition(context.Background(), created.ID, StatusNew, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, StatusNew, same.Status)
	assert.Len(t, events.events, 1)
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	svc, _, _ := newTestService()
	created, err := svc.Create(context.Background(), createRequest(), "actor-1")
	require.NoError(t, err)

	priority := string(PriorityLow)
	updated, err := svc.Update(context.Background(), created.ID, UpdateCaseRequest{Priority: &priority}, "actor-2")
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, updated.Priority)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Number, updated.Number)
}

func TestDeleteEmitsEvent(t *testing.T) {
	svc, repo, events := newTestService()
	created, err := svc.Create(context.Background(), createRequest(), "actor-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID, "actor-1"))
	assert.Empty(t, repo.records)
	assert.Equal(t, "deleted", events.events[len(events.events)-1].action)
}

func TestCanTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StatusNew, StatusInProgress))
	assert.True(t, CanTransition(StatusNew, StatusClosed))
	assert.True(t, CanTransition(StatusInProgress, StatusClosed))
	assert.True(t, CanTransition(StatusClosed, StatusInProgress))
	assert.False(t, CanTransition(StatusClosed, StatusNew))
	assert.False(t, CanTransition(StatusInProgress, StatusNew))
}
