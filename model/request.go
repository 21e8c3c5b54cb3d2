// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for rotation or revocation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
