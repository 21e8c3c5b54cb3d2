package service

import (
	"testing"
	"time"

	"skillswap-api/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_FailsFast(t *testing.T) {
	cases := map[string]func(c *config.JWTConfig){
		"short access secret":  func(c *config.JWTConfig) { c.AccessSecret = "tiny" },
		"short refresh secret": func(c *config.JWTConfig) { c.RefreshSecret = "tiny" },
		"malformed ttl":        func(c *config.JWTConfig) { c.RefreshTTL = "seven days" },
		"zero ttl":             func(c *config.JWTConfig) { c.AccessTTL = "0m" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testJWTConfig()
			mutate(&cfg)
			_, err := NewTokenService(cfg, nil)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	clock := newFakeClock()
	svc := newTestTokenService(t, clock)

	raw, err := svc.IssueAccessToken(7, "a@b.com", "Ann")
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "Ann", claims.Name)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, clock.Now().Add(15*time.Minute), claims.ExpiresAt.Time)

	clock.Advance(15 * time.Minute)
	_, err = svc.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "token is expired at its exp instant")
}

func TestTokenService_RefreshTokenRoundTrip(t *testing.T) {
	clock := newFakeClock()
	svc := newTestTokenService(t, clock)

	raw, expiresAt, err := svc.IssueRefreshToken(7, "cred-1")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(7*24*time.Hour), expiresAt)

	claims, err := svc.VerifyRefreshToken(raw)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "cred-1", claims.ID)

	clock.Advance(7*24*time.Hour + time.Second)
	_, err = svc.VerifyRefreshToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_KindsAreNotInterchangeable(t *testing.T) {
	svc := newTestTokenService(t, newFakeClock())

	access, err := svc.IssueAccessToken(1, "a@b.com", "Ann")
	require.NoError(t, err)
	refresh, _, err := svc.IssueRefreshToken(1, "cred-1")
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsForeignAndMalformedTokens(t *testing.T) {
	clock := newFakeClock()
	svc := newTestTokenService(t, clock)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "cred-1",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	})
	signed, err := foreign.SignedString([]byte("some-other-secret-some-other-secret"))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ID:        "cred-1",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, raw := range []string{signed, none, "", "not.a.jwt"} {
		_, err := svc.VerifyRefreshToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestTokenService_RefreshTokenWithoutIDIsRejected(t *testing.T) {
	clock := newFakeClock()
	svc := newTestTokenService(t, clock)

	raw, _, err := svc.IssueRefreshToken(1, "")
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashToken(t *testing.T) {
	h := HashToken("raw-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("raw-token"))
	assert.NotEqual(t, h, HashToken("raw-token2"))
	assert.NotContains(t, h, "raw-token")
}
