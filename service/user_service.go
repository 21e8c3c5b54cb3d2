package service

import (
	"context"
	"errors"

	"skillswap-api/model"
	"skillswap-api/repository"
)

var ErrUserNotFound = errors.New("user not found")

// UserService handles profile lookups.
type UserService struct {
	userRepo repository.IUserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile returns the user behind an authenticated request.
func (s *UserService) GetProfile(ctx context.Context, userID int) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
