package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Repository defines persistence operations for notifications.
type Repository interface {
	Create(ctx context.Context, n Notification) (*Notification, error)
	List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const notificationColumns = `id, user_id, kind, title, body, read_at, created_at`

// Create inserts a notification and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, n Notification) (*Notification, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+notificationColumns,
		n.ID, n.UserID, string(n.Kind), n.Title, n.Body)
	return scanNotification(row)
}

// List returns the user's notifications, newest first.
func (r *PGRepository) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("notifications: list: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// UnreadCount counts the user's unread notifications.
func (r *PGRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("notifications: unread count: %w", err)
	}
	return n, nil
}

// MarkRead stamps a single notification owned by the user.
func (r *PGRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read_at = $3
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`,
		id, userID, at)
	if err != nil {
		return fmt.Errorf("notifications: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %s", httpx.ErrNotFound, id)
	}
	return nil
}

// MarkAllRead stamps every unread notification for the user.
func (r *PGRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`,
		userID, at)
	if err != nil {
		return 0, fmt.Errorf("notifications: mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var kind string
	err := row.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("notifications: scan: %w", err)
	}
	n.Kind = Kind(kind)
	return &n, nil
}

var _ Repository = (*PGRepository)(nil)
