package notifications

import "time"

// Kind classifies what produced a notification.
type Kind string

const (
	KindCase    Kind = "case"
	KindMessage Kind = "message"
	KindSystem  Kind = "system"
	KindReport  Kind = "report"
)

// Notification is an in-app alert addressed to one user.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Kind      Kind       `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
