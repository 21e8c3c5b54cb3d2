package model

import (
	"strings"
	"time"
)

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail is the canonical form used for storage, lookups and rate-limit keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
