package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	records   []Notification
	failUsers map[string]bool
}

func (m *mockRepository) Create(ctx context.Context, n Notification) (*Notification, error) {
	if m.failUsers[n.UserID] {
		return nil, errors.New("insert failed")
	}
	n.CreatedAt = time.Now()
	m.records = append(m.records, n)
	out := n
	return &out, nil
}

func (m *mockRepository) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	var out []Notification
	for _, n := range m.records {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *mockRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, rec := range m.records {
		if rec.UserID == userID && rec.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	for i := range m.records {
		if m.records[i].ID == id && m.records[i].UserID == userID {
			m.records[i].ReadAt = &at
			return nil
		}
	}
	return errors.New("not found")
}

func (m *mockRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	var n int64
	for i := range m.records {
		if m.records[i].UserID == userID && m.records[i].ReadAt == nil {
			m.records[i].ReadAt = &at
			n++
		}
	}
	return n, nil
}

func TestDeliverManySkipsFailedRecipients(t *testing.T) {
	repo := &mockRepository{failUsers: map[string]bool{"u2": true}}
	svc := NewService(repo, nil)

	delivered := svc.DeliverMany(context.Background(), []string{"u1", "u2", "u3"}, KindSystem, "Maintenance", "Window at 02:00")
	assert.Equal(t, 2, delivered)
	assert.Len(t, repo.records, 2)
}

func TestMarkAllRead(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Deliver(context.Background(), "u1", KindCase, "Case updated", "details")
		require.NoError(t, err)
	}

	unread, err := svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	n, err := svc.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	unread, err = svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, unread)
}
