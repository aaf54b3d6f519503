package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service owns notification business rules. Delivery is idempotent at
// the service level: each call creates exactly one row per recipient.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Deliver stores a notification for one user.
func (s *Service) Deliver(ctx context.Context, userID string, kind Kind, title, body string) (*Notification, error) {
	return s.repo.Create(ctx, Notification{
		ID:     uuid.NewString(),
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	})
}

// DeliverMany stores the same notification for several users. Failures
// are logged and skipped so one bad recipient does not block the rest.
func (s *Service) DeliverMany(ctx context.Context, userIDs []string, kind Kind, title, body string) int {
	delivered := 0
	for _, id := range userIDs {
		if _, err := s.Deliver(ctx, id, kind, title, body); err != nil {
			if s.logger != nil {
				s.logger.Warn("notification delivery failed",
					slog.String("user_id", id), slog.Any("error", err))
			}
			continue
		}
		delivered++
	}
	return delivered
}

// List returns the user's notifications.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, userID, unreadOnly, limit, offset)
}

// UnreadCount reports the user's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead stamps one notification.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id, s.now())
}

// MarkAllRead stamps every unread notification for the user.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}
