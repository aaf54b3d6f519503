package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Repository defines persistence operations for direct messages.
type Repository interface {
	Create(ctx context.Context, m Message) (*Message, error)
	Get(ctx context.Context, id string) (*Message, error)
	Thread(ctx context.Context, userID, peerID string, limit, offset int) ([]Message, error)
	Conversations(ctx context.Context, userID string) ([]Conversation, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, peerID string, at time.Time) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const messageColumns = `id, sender_id, recipient_id, body, read_at, created_at`

// Create inserts a message and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, m Message) (*Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, body, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING `+messageColumns,
		m.ID, m.SenderID, m.RecipientID, m.Body)
	return scanMessage(row)
}

// Get fetches a message by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (*Message, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: message %s", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return m, nil
}

// Thread returns the messages exchanged between two users, newest first.
func (r *PGRepository) Thread(ctx context.Context, userID, peerID string, limit, offset int) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		userID, peerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("messages: thread: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Conversations returns the latest message per peer plus unread counts.
func (r *PGRepository) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (peer_id) peer_id, body, created_at,
			(SELECT COUNT(*) FROM messages u
			 WHERE u.recipient_id = $1 AND u.sender_id = peer_id AND u.read_at IS NULL) AS unread
		FROM (
			SELECT CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS peer_id,
				body, created_at
			FROM messages
			WHERE sender_id = $1 OR recipient_id = $1
		) t
		ORDER BY peer_id, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("messages: conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.PeerID, &c.LastBody, &c.LastAt, &c.UnreadCount); err != nil {
			return nil, fmt.Errorf("messages: scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UnreadCount counts unread messages addressed to the user.
func (r *PGRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("messages: unread count: %w", err)
	}
	return n, nil
}

// MarkRead stamps unread messages from peerID to userID.
func (r *PGRepository) MarkRead(ctx context.Context, userID, peerID string, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET read_at = $3
		WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`,
		userID, peerID, at)
	if err != nil {
		return 0, fmt.Errorf("messages: mark read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.ReadAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("messages: scan: %w", err)
	}
	return &m, nil
}

var _ Repository = (*PGRepository)(nil)
