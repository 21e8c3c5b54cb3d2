package service

import (
	"context"

	"skillswap-api/model"

	"github.com/stretchr/testify/mock"
)

// MockTokenRepository is a mock for ITokenRepository.
type MockTokenRepository struct{ mock.Mock }

func (m *MockTokenRepository) Save(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) FindByID(ctx context.Context, id string) (*model.RefreshToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) ConsumeByID(ctx context.Context, id, tokenHash string) (bool, error) {
	args := m.Called(ctx, id, tokenHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) DeleteByUserID(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
