package messages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Notifier receives delivered messages so recipients can be alerted
// out of band. The app wires this to the notification fan-out queue.
type Notifier interface {
	MessageDelivered(ctx context.Context, m Message)
}

// Service owns messaging business rules.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// Send delivers a message from sender to recipient.
func (s *Service) Send(ctx context.Context, senderID, recipientID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: empty message body", httpx.ErrValidation)
	}
	if senderID == recipientID {
		return nil, fmt.Errorf("%w: cannot message yourself", httpx.ErrValidation)
	}
	created, err := s.repo.Create(ctx, Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.MessageDelivered(ctx, *created)
	}
	return created, nil
}

// Thread returns the conversation between the user and a peer.
func (s *Service) Thread(ctx context.Context, userID, peerID string, limit, offset int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.Thread(ctx, userID, peerID, limit, offset)
}

// Conversations lists the user's threads with unread counts.
func (s *Service) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	return s.repo.Conversations(ctx, userID)
}

// UnreadCount reports how many unread messages the user has.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead stamps every unread message from the peer as read.
func (s *Service) MarkRead(ctx context.Context, userID, peerID string) (int64, error) {
	n, err := s.repo.MarkRead(ctx, userID, peerID, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 && s.logger != nil {
		s.logger.Debug("messages marked read",
			slog.String("user_id", userID),
			slog.String("peer_id", peerID),
			slog.Int64("count", n))
	}
	return n, nil
}
