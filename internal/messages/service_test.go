package messages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseguardian/nexus/internal/platform/httpx"
)

type mockRepository struct {
	created []Message
	marked  int64
}

func (m *mockRepository) Create(ctx context.Context, msg Message) (*Message, error) {
	msg.CreatedAt = time.Now()
	m.created = append(m.created, msg)
	out := msg
	return &out, nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (*Message, error) {
	for _, msg := range m.created {
		if msg.ID == id {
			out := msg
			return &out, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *mockRepository) Thread(ctx context.Context, userID, peerID string, limit, offset int) ([]Message, error) {
	return m.created, nil
}

func (m *mockRepository) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	return nil, nil
}

func (m *mockRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, msg := range m.created {
		if msg.RecipientID == userID && msg.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) MarkRead(ctx context.Context, userID, peerID string, at time.Time) (int64, error) {
	var n int64
	for i := range m.created {
		if m.created[i].RecipientID == userID && m.created[i].SenderID == peerID && m.created[i].ReadAt == nil {
			m.created[i].ReadAt = &at
			n++
		}
	}
	m.marked += n
	return n, nil
}

type mockNotifier struct {
	delivered []Message
}

func (m *mockNotifier) MessageDelivered(ctx context.Context, msg Message) {
	m.delivered = append(m.delivered, msg)
}

func TestSendDeliversAndNotifies(t *testing.T) {
	repo := &mockRepository{}
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier, nil)

	msg, err := svc.Send(context.Background(), "u1", "u2", "  shift handover at 22:00  ")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "shift handover at 22:00", msg.Body)

	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, "u2", notifier.delivered[0].RecipientID)
}

func TestSendRejectsEmptyBody(t *testing.T) {
	svc := NewService(&mockRepository{}, nil, nil)
	_, err := svc.Send(context.Background(), "u1", "u2", "   ")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSendRejectsSelfMessage(t *testing.T) {
	svc := NewService(&mockRepository{}, nil, nil)
	_, err := svc.Send(context.Background(), "u1", "u1", "hello me")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestMarkReadClearsUnread(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, nil, nil)

	_, err := svc.Send(context.Background(), "u1", "u2", "first")
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), "u1", "u2", "second")
	require.NoError(t, err)

	unread, err := svc.UnreadCount(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	marked, err := svc.MarkRead(context.Background(), "u2", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, marked)

	unread, err = svc.UnreadCount(context.Background(), "u2")
	require.NoError(t, err)
	assert.Zero(t, unread)
}
