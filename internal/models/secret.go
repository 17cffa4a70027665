package models

import "time"

// SecretRecord is a stored TOTP secret for one user.
// Enabled flips to true only after the first submitted code has been
// verified against this secret; it is never set true on any other path.
type SecretRecord struct {
	UserID    string    `json:"user_id"`
	Secret    string    `json:"-"` // base32-encoded shared secret, never serialized
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}
