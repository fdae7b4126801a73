package models

import "time"

// RefreshToken is a single-use secret exchanged for a new token pair.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    int64
	SchemaID  int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
