package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"skillswap-api/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	query := regexp.QuoteMeta(`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id, created_at`)

	t.Run("success", func(t *testing.T) {
		user := &model.User{Name: "Ann", Email: "ann@example.com", Password: "hash"}
		mock.ExpectQuery(query).WithArgs("Ann", "ann@example.com", "hash").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(42, time.Now()))

		require.NoError(t, repo.CreateUser(context.Background(), user))
		assert.Equal(t, 42, user.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		user := &model.User{Name: "Ann", Email: "ann@example.com", Password: "hash"}
		mock.ExpectQuery(query).WithArgs("Ann", "ann@example.com", "hash").
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.CreateUser(context.Background(), user)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	columns := []string{"id", "name", "email", "password", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, created_at FROM users WHERE email = $1`)).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "Ann", "ann@example.com", "hash", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, created_at FROM users WHERE id = $1`)).
		WithArgs(99).WillReturnError(sql.ErrNoRows)

	user, err := repo.GetUserByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)

	_, err = repo.GetUserByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
