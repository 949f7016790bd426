package model

import "time"

// User represents a row of the `users` table.  PasswordHash never leaves
// the server; it is excluded from JSON.
type User struct {
	ID           uint64    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session models an entry in the `sessions` table.  ID is the opaque token
// handed to the browser in the session_id cookie.
type Session struct {
	ID        string
	UserID    uint64
	CreatedAt time.Time
}

// Expired reports whether the session is older than ttl at instant now.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.After(s.CreatedAt.Add(ttl))
}
