package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"skillswap-api/logger"
	"skillswap-api/metrics"
	"skillswap-api/model"
	"skillswap-api/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers unknown users, wrong passwords and every refresh
	// failure, so callers cannot tell which one happened.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email is already registered")
)

// TokenPair is the credential pair handed to a client after login, registration or refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AuthResult is a TokenPair together with the user it was issued for.
type AuthResult struct {
	User *model.User `json:"user"`
	TokenPair
}

// AuthService runs the session lifecycle: register, login, rotate and revoke.
type AuthService struct {
	users      repository.IUserRepository
	tokens     repository.ITokenRepository
	tokenSvc   *TokenService
	bcryptCost int
	newID      func() string
	dummyHash  []byte
}

// NewAuthService fails when bcryptCost is unusable, since login would then lose its
// constant-cost path for unknown emails.
func NewAuthService(users repository.IUserRepository, tokens repository.ITokenRepository, tokenSvc *TokenService, bcryptCost int) (*AuthService, error) {
	s := &AuthService{
		users:      users,
		tokens:     tokens,
		tokenSvc:   tokenSvc,
		bcryptCost: bcryptCost,
		newID:      uuid.NewString,
	}
	// Compared against when the email is unknown, so both login failures cost one bcrypt run.
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("skillswap-timing-equalizer"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("could not prepare password hashing: %w", err)
	}
	s.dummyHash = dummyHash
	return s, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Register creates the user and opens its first session.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (result *AuthResult, err error) {
	defer func() { metrics.ObserveSession("register", err) }()

	email := model.NormalizeEmail(req.Email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("could not look up user: %w", err)
	}

	hashed, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	user := &model.User{Name: req.Name, Email: email, Password: hashed}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	pair, err := s.IssueTokens(ctx, user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// Login checks the password and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (result *AuthResult, err error) {
	defer func() { metrics.ObserveSession("login", err) }()

	user, err := s.users.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}

	if !s.CheckPasswordHash(password, user.Password) {
		logger.Log.WithField("user_id", user.ID).Warn("Login failed: password mismatch")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(ctx, user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// IssueTokens mints an access/refresh pair under a fresh credential id and persists
// the refresh record before returning, so a returned pair is always usable.
func (s *AuthService) IssueTokens(ctx context.Context, userID int, email, name string) (*TokenPair, error) {
	accessToken, err := s.tokenSvc.IssueAccessToken(userID, email, name)
	if err != nil {
		return nil, err
	}

	credentialID := s.newID()
	refreshToken, expiresAt, err := s.tokenSvc.IssueRefreshToken(userID, credentialID)
	if err != nil {
		return nil, err
	}

	record := &model.RefreshToken{
		ID:        credentialID,
		UserID:    userID,
		TokenHash: HashToken(refreshToken),
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("could not persist refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// RefreshSession exchanges a refresh token for a new pair. The presented token is
// consumed with a compare-and-delete before the replacement is issued: a replayed,
// forged or concurrently used token finds no record and is rejected.
func (s *AuthService) RefreshSession(ctx context.Context, rawRefreshToken string) (result *AuthResult, err error) {
	defer func() { metrics.ObserveSession("refresh", err) }()

	claims, err := s.tokenSvc.VerifyRefreshToken(rawRefreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":  claims.UserID,
		"token_id": claims.ID,
	})

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Refresh rejected: user no longer exists")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}

	record, err := s.tokens.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Refresh rejected: token already used or revoked")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not load refresh token: %w", err)
	}

	hash := HashToken(rawRefreshToken)
	if subtle.ConstantTimeCompare([]byte(record.TokenHash), []byte(hash)) != 1 || record.UserID != user.ID {
		log.Warn("Refresh rejected: token does not match stored record")
		return nil, ErrInvalidCredentials
	}
	if record.IsExpired(s.tokenSvc.now()) {
		log.Info("Refresh rejected: stored record expired")
		return nil, ErrInvalidCredentials
	}

	consumed, err := s.tokens.ConsumeByID(ctx, record.ID, hash)
	if err != nil {
		return nil, fmt.Errorf("could not consume refresh token: %w", err)
	}
	if !consumed {
		log.Warn("Refresh rejected: token consumed by a concurrent request")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(ctx, user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}
	log.Debug("Refresh token rotated")
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// RevokeRefreshToken deletes the record matching the raw token. Unknown tokens are a no-op.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, rawRefreshToken string) (err error) {
	defer func() { metrics.ObserveSession("revoke", err) }()

	n, err := s.tokens.DeleteByTokenHash(ctx, HashToken(rawRefreshToken))
	if err != nil {
		return fmt.Errorf("could not revoke refresh token: %w", err)
	}
	logger.Log.WithField("revoked", n).Debug("Refresh token revocation processed")
	return nil
}

// RevokeAllSessions deletes every refresh record of a user.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID int) (err error) {
	defer func() { metrics.ObserveSession("revoke_all", err) }()

	n, err := s.tokens.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("could not revoke sessions: %w", err)
	}
	logger.Log.WithFields(logrus.Fields{"user_id": userID, "revoked": n}).Info("All sessions revoked")
	return nil
}
