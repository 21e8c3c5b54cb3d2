package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	"skillswap-api/logger"
	"skillswap-api/model"
	"skillswap-api/ratelimit"

	"github.com/sirupsen/logrus"
)

// peekLimit caps how much of the body a key function reads.
const peekLimit = 64 << 10

// KeyFunc derives the rate-limit key of a request.
type KeyFunc func(r *http.Request) string

// ClientIPKey keys by the client address. RemoteAddr reflects forwarding headers
// only when TrustedRealIP accepted the peer as a proxy.
func ClientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIPAndEmailKey keys by client address plus the normalized email of a JSON
// body. The body is restored for the next handler.
func ClientIPAndEmailKey(r *http.Request) string {
	ip := ClientIPKey(r)
	if r.Body == nil {
		return ip
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, peekLimit))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if err != nil {
		return ip
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ip
	}
	return ip + ":" + model.NormalizeEmail(body.Email)
}

// RateLimit gates next with limiter. Over the budget it answers 429 with
// Retry-After. A failing counter store lets the request through.
func RateLimit(limiter *ratelimit.Limiter, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Allow(r.Context(), keyFunc(r))
			if err != nil && !errors.Is(err, ratelimit.ErrTooManyRequests) {
				logger.Log.WithFields(logrus.Fields{
					"limiter": limiter.Prefix(),
					"path":    r.URL.Path,
				}).WithError(err).Error("Rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				logger.Log.WithFields(logrus.Fields{
					"limiter": limiter.Prefix(),
					"path":    r.URL.Path,
				}).Warn("Rate limit exceeded")
				mapServiceError(w, err, "Too many requests").Send(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
