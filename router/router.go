package router

import (
	"net/http"
	"net/netip"

	_ "skillswap-api/docs"
	"skillswap-api/handler"
	"skillswap-api/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Limiters holds one limiter per gated endpoint class.
type Limiters struct {
	Login    *ratelimit.Limiter
	Register *ratelimit.Limiter
	Refresh  *ratelimit.Limiter
}

// NewRouter builds the HTTP surface. Forwarding headers are honoured only from
// peers in trustedProxies.
func NewRouter(authHandler *handler.AuthHandler, userHandler *handler.UserHandler, verifier handler.AccessTokenVerifier, limiters Limiters, trustedProxies []netip.Prefix) http.Handler {
	r := chi.NewRouter()
	r.Use(handler.TrustedRealIP(trustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.With(handler.RateLimit(limiters.Register, handler.ClientIPAndEmailKey)).
		Post("/register", handler.ErrorHandlingMiddleware(authHandler.Register))
	r.With(handler.RateLimit(limiters.Login, handler.ClientIPAndEmailKey)).
		Post("/login", handler.ErrorHandlingMiddleware(authHandler.Login))

	r.Route("/api", func(r chi.Router) {
		r.With(handler.RateLimit(limiters.Refresh, handler.ClientIPKey)).
			Post("/token/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))
		r.Post("/logout", handler.ErrorHandlingMiddleware(authHandler.Logout))

		r.Group(func(r chi.Router) {
			r.Use(handler.AuthMiddleware(verifier))
			r.Post("/logout/all", handler.ErrorHandlingMiddleware(authHandler.LogoutAll))
			r.Get("/me", handler.ErrorHandlingMiddleware(userHandler.Me))
		})
	})

	return r
}
