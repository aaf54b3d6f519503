package messages

import "time"

// Message is a direct message between two console users.
type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Conversation summarizes a message thread with one peer.
type Conversation struct {
	PeerID      string    `json:"peer_id"`
	LastBody    string    `json:"last_body"`
	LastAt      time.Time `json:"last_at"`
	UnreadCount int       `json:"unread_count"`
}
