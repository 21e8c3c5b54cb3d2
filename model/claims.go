package model

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. RegisteredClaims.ID carries the
// credential id that correlates the token with its RefreshToken record.
type RefreshClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}
