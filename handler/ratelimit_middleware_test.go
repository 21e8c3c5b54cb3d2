package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skillswap-api/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("store unavailable")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_DeniesOverBudget(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := ratelimit.New(ratelimit.NewMemoryStore(clock.Now),
		ratelimit.Config{Prefix: "login", Window: time.Minute, Max: 2}, clock.Now)
	h := RateLimit(limiter, ClientIPKey)(okHandler())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do().Code)

	clock.Advance(15 * time.Second)
	denied := do()
	assert.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.Equal(t, "45", denied.Header().Get("Retry-After"))
	assert.Equal(t, "0", denied.Header().Get("X-RateLimit-Remaining"))

	clock.Advance(45 * time.Second)
	assert.Equal(t, http.StatusOK, do().Code)
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	limiter := ratelimit.New(ratelimit.NewMemoryStore(nil),
		ratelimit.Config{Prefix: "refresh", Window: time.Minute, Max: 1}, nil)
	h := RateLimit(limiter, ClientIPKey)(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/api/token/refresh", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, addr)
	}
}

func TestRateLimit_FailsOpenOnStoreError(t *testing.T) {
	limiter := ratelimit.New(failingStore{}, ratelimit.Config{Prefix: "login", Window: time.Minute, Max: 1}, nil)
	h := RateLimit(limiter, ClientIPKey)(okHandler())

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestClientIPAndEmailKey(t *testing.T) {
	body := `{"email":"  Ada@Example.COM ","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.4:4000"

	assert.Equal(t, "192.0.2.4:ada@example.com", ClientIPAndEmailKey(req))

	restored, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(restored))
}

func TestClientIPAndEmailKey_NonJSONFallsBackToIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("not json"))
	req.RemoteAddr = "192.0.2.4:4000"
	assert.Equal(t, "192.0.2.4", ClientIPAndEmailKey(req))
}
