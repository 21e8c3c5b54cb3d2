package repository

import (
	"context"
	"database/sql"
	"errors"

	"skillswap-api/logger"
	"skillswap-api/model"
)

// IUserRepository defines the user lookups the session core needs.
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// CreateUser inserts the user; a concurrent registration of the same email yields ErrDuplicateEmail.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, user.Name, user.Email, user.Password).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		logger.Log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, name, email, password, created_at FROM users WHERE email = $1`
	return r.getUser(ctx, query, email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	query := `SELECT id, name, email, password, created_at FROM users WHERE id = $1`
	return r.getUser(ctx, query, id)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).Error("Failed to execute get user query")
		return nil, err
	}
	return user, nil
}
