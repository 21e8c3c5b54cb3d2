// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skillswap-api/logger"
	"skillswap-api/model"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database operations.
type ITokenRepository interface {
	Save(ctx context.Context, token *model.RefreshToken) error
	FindByID(ctx context.Context, id string) (*model.RefreshToken, error)
	ConsumeByID(ctx context.Context, id, tokenHash string) (bool, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error)
	DeleteByUserID(ctx context.Context, userID int) (int64, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

func hashPrefix(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// Save inserts a new refresh token record. The id is generated by the caller.
func (r *TokenRepository) Save(ctx context.Context, token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"token_id":   token.ID,
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Debug("Executing query to save a refresh token")

	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query, token.ID, token.UserID, token.TokenHash, token.ExpiresAt).Scan(&token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute save refresh token query")
		return err
	}
	return nil
}

// FindByID retrieves a refresh token record by its credential id.
func (r *TokenRepository) FindByID(ctx context.Context, id string) (*model.RefreshToken, error) {
	log := logger.Log.WithField("token_id", id)

	token := &model.RefreshToken{}
	query := `SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.WithError(err).Error("Failed to execute find refresh token query")
		return nil, err
	}
	return token, nil
}

// ConsumeByID deletes the record only if both id and hash still match and reports
// whether this call removed it. Two concurrent rotations of the same credential
// cannot both observe true.
func (r *TokenRepository) ConsumeByID(ctx context.Context, id, tokenHash string) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"token_id":    id,
		"hash_prefix": hashPrefix(tokenHash),
	})

	res, err := r.DB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1 AND token_hash = $2`, id, tokenHash)
	if err != nil {
		log.WithError(err).Error("Failed to execute consume refresh token query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteByTokenHash deletes every record carrying the given hash and returns the count.
func (r *TokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	log := logger.Log.WithField("hash_prefix", hashPrefix(tokenHash))

	res, err := r.DB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete refresh token by hash query")
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByUserID deletes all refresh tokens for a specific user.
// This is used for logging out from all sessions.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID int) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to delete all refresh tokens for a user")

	res, err := r.DB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete refresh tokens query")
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes records that expired before the given instant.
// Rotation never depends on it; it only bounds table growth.
func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, before)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete expired refresh tokens query")
		return 0, err
	}
	return res.RowsAffected()
}
