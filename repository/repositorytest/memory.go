// Package repositorytest provides in-memory repositories with the same observable
// semantics as the Postgres ones, for tests of the layers above.
package repositorytest

import (
	"context"
	"sync"
	"time"

	"skillswap-api/model"
	"skillswap-api/repository"
)

type UserRepository struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[int]model.User)}
}

func (r *UserRepository) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.byID[user.ID] = *user
	return nil
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetUserByID(_ context.Context, id int) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) Delete(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// TokenRepository mirrors the SQL compare-and-delete used by ConsumeByID.
type TokenRepository struct {
	mu      sync.Mutex
	records map[string]model.RefreshToken
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{records: make(map[string]model.RefreshToken)}
}

func (r *TokenRepository) Save(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[token.ID] = *token
	return nil
}

func (r *TokenRepository) FindByID(_ context.Context, id string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *TokenRepository) ConsumeByID(_ context.Context, id, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.TokenHash != tokenHash {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

func (r *TokenRepository) DeleteByTokenHash(_ context.Context, tokenHash string) (int64, error) {
	return r.deleteWhere(func(rec model.RefreshToken) bool { return rec.TokenHash == tokenHash }), nil
}

func (r *TokenRepository) DeleteByUserID(_ context.Context, userID int) (int64, error) {
	return r.deleteWhere(func(rec model.RefreshToken) bool { return rec.UserID == userID }), nil
}

// DeleteExpired removes records whose expiry is at or before the given instant.
func (r *TokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return r.deleteWhere(func(rec model.RefreshToken) bool { return !rec.ExpiresAt.After(before) }), nil
}

func (r *TokenRepository) deleteWhere(match func(model.RefreshToken) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if match(rec) {
			delete(r.records, id)
			n++
		}
	}
	return n
}

func (r *TokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// SetHash overwrites the stored hash of a record, simulating a mismatched record.
func (r *TokenRepository) SetHash(id, tokenHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[id]
	rec.TokenHash = tokenHash
	r.records[id] = rec
}

var (
	_ repository.IUserRepository  = (*UserRepository)(nil)
	_ repository.ITokenRepository = (*TokenRepository)(nil)
)
