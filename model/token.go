// file: model/token.go

package model

import "time"

// RefreshToken holds the data for a refresh credential record in the database.
// Only the SHA-256 hash of the raw credential is stored; a record is deleted once consumed.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	TokenHash string    `json:"-"` // The hash is not exposed in JSON responses.
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the record is past its expiry at the given instant.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
