package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"skillswap-api/config"
	"skillswap-api/model"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any signature, algorithm or expiry failure.
// AuthService converts it to ErrInvalidCredentials before it reaches a caller.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService mints and verifies signed, time-boxed credentials. It holds no
// mutable state and is safe for concurrent use.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenService parses the TTLs once; a short secret or a non-positive TTL is an error.
func NewTokenService(cfg config.JWTConfig, now func() time.Time) (*TokenService, error) {
	if len(cfg.AccessSecret) < config.MinSecretLength || len(cfg.RefreshSecret) < config.MinSecretLength {
		return nil, fmt.Errorf("%w: signing secrets must be at least %d bytes", config.ErrInvalidConfig, config.MinSecretLength)
	}
	accessTTL, err := config.ParsePositiveDuration(cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: access ttl: %v", config.ErrInvalidConfig, err)
	}
	refreshTTL, err := config.ParsePositiveDuration(cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh ttl: %v", config.ErrInvalidConfig, err)
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        cfg.Issuer,
		now:           now,
	}, nil
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) registered(userID int, ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)
	return jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}, expiresAt
}

// IssueAccessToken signs a short-lived token carrying the user's identity.
func (s *TokenService) IssueAccessToken(userID int, email, name string) (string, error) {
	registered, _ := s.registered(userID, s.accessTTL)
	claims := &model.AccessClaims{
		UserID:           userID,
		Email:            email,
		Name:             name,
		RegisteredClaims: registered,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken signs a long-lived token bound to credentialID and returns its expiry.
func (s *TokenService) IssueRefreshToken(userID int, credentialID string) (string, time.Time, error) {
	registered, _ := s.registered(userID, s.refreshTTL)
	registered.ID = credentialID
	claims := &model.RefreshClaims{
		UserID:           userID,
		RegisteredClaims: registered,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	// Numeric dates have second precision; report what the token actually says.
	return signed, registered.ExpiresAt.Time, nil
}

func (s *TokenService) parse(raw string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// VerifyAccessToken checks signature and expiry and returns the payload.
func (s *TokenService) VerifyAccessToken(raw string) (*model.AccessClaims, error) {
	claims := &model.AccessClaims{}
	if err := s.parse(raw, claims, s.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken checks signature and expiry and returns the subject and credential id.
func (s *TokenService) VerifyRefreshToken(raw string) (*model.RefreshClaims, error) {
	claims := &model.RefreshClaims{}
	if err := s.parse(raw, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashToken is the one-way digest stored in place of a raw refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
