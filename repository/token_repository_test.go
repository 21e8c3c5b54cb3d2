package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"skillswap-api/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTokenRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	createdAt := time.Now().UTC()
	token := &model.RefreshToken{ID: "tok-1", UserID: 7, TokenHash: "abcdef0123456789", ExpiresAt: createdAt.Add(time.Hour)}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4) RETURNING created_at`)).
		WithArgs(token.ID, token.UserID, token.TokenHash, token.ExpiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	err := repo.Save(context.Background(), token)

	assert.NoError(t, err)
	assert.Equal(t, createdAt, token.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)
	query := regexp.QuoteMeta(`SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE id = $1`)

	t.Run("found", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery(query).WithArgs("tok-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
				AddRow("tok-1", 7, "hash", now.Add(time.Hour), now))

		token, err := repo.FindByID(context.Background(), "tok-1")

		require.NoError(t, err)
		assert.Equal(t, 7, token.UserID)
		assert.Equal(t, "hash", token.TokenHash)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(query).WithArgs("tok-2").WillReturnError(dbErr)

		_, err := repo.FindByID(context.Background(), "tok-2")

		assert.ErrorIs(t, err, dbErr)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_ConsumeByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)
	query := regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE id = $1 AND token_hash = $2`)

	mock.ExpectExec(query).WithArgs("tok-1", "hash").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("tok-1", "hash").WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.ConsumeByID(context.Background(), "tok-1", "hash")
	require.NoError(t, err)
	second, err := repo.ConsumeByID(context.Background(), "tok-1", "hash")
	require.NoError(t, err)

	assert.True(t, first, "first consumer wins")
	assert.False(t, second, "second consumer observes nothing to delete")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteByTokenHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE token_hash = $1`)).
		WithArgs("hash").WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.DeleteByTokenHash(context.Background(), "hash")

	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteByUserIDAndExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)
	cutoff := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE user_id = $1`)).
		WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE expires_at <= $1`)).
		WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
