package identity

import "time"

// User represents an authenticated account with credentials. Profile
// data (name, role, overrides) lives in the profiles package; this
// record only carries what login needs.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
