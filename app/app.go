package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillswap-api/config"
	"skillswap-api/db"
	"skillswap-api/handler"
	"skillswap-api/logger"
	"skillswap-api/ratelimit"
	"skillswap-api/repository"
	"skillswap-api/router"
	"skillswap-api/service"

	"github.com/sirupsen/logrus"
)

// sweepInterval is how often expired refresh records are purged.
const sweepInterval = time.Hour

// Deps are the storage collaborators of an App.
type Deps struct {
	Users     repository.IUserRepository
	Tokens    repository.ITokenRepository
	RateStore ratelimit.Store
	Now       func() time.Time
}

// App is a fully wired HTTP application.
type App struct {
	Router       http.Handler
	AuthService  *service.AuthService
	TokenService *service.TokenService
	Limiters     router.Limiters
}

// New wires services, limiters and handlers on top of deps.
func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tokenService, err := service.NewTokenService(cfg.JWT, deps.Now)
	if err != nil {
		return nil, err
	}
	authService, err := service.NewAuthService(deps.Users, deps.Tokens, tokenService, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	userService := service.NewUserService(deps.Users)

	limiters, err := newLimiters(cfg.RateLimit, deps.RateStore, deps.Now)
	if err != nil {
		return nil, err
	}

	trustedProxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return nil, fmt.Errorf("server.trusted_proxies: %w", err)
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	return &App{
		Router:       router.NewRouter(authHandler, userHandler, tokenService, limiters, trustedProxies),
		AuthService:  authService,
		TokenService: tokenService,
		Limiters:     limiters,
	}, nil
}

func newLimiters(cfg config.RateLimitConfig, store ratelimit.Store, now func() time.Time) (router.Limiters, error) {
	build := func(prefix string, lc config.LimitConfig) (*ratelimit.Limiter, error) {
		window, err := config.ParsePositiveDuration(lc.Window)
		if err != nil {
			return nil, fmt.Errorf("rate_limit.%s.window: %w", prefix, err)
		}
		return ratelimit.New(store, ratelimit.Config{Prefix: prefix, Window: window, Max: lc.Max}, now), nil
	}

	var limiters router.Limiters
	var err error
	if limiters.Login, err = build("login", cfg.Login); err != nil {
		return limiters, err
	}
	if limiters.Register, err = build("register", cfg.Register); err != nil {
		return limiters, err
	}
	if limiters.Refresh, err = build("refresh", cfg.Refresh); err != nil {
		return limiters, err
	}
	return limiters, nil
}

// NewRateStore returns the Redis-backed store when a URL is configured and the
// in-process store otherwise.
func NewRateStore(cfg config.RedisConfig) (ratelimit.Store, error) {
	local := ratelimit.NewMemoryStore(nil)
	if cfg.URL == "" {
		logger.Log.Info("No redis.url configured, rate limiting with in-process counters")
		return local, nil
	}

	dial, err := db.RedisDialer(cfg.URL)
	if err != nil {
		return nil, err
	}
	return ratelimit.NewRedisStore(dial, local, ratelimit.RedisOptions{
		CommandTimeout:  config.MustParseDuration(cfg.CommandTimeout),
		DisableDuration: config.MustParseDuration(cfg.DisableDuration),
		LogInterval:     config.MustParseDuration(cfg.LogInterval),
	}), nil
}

type expiredTokenPurger interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// sweepExpiredTokens purges expired refresh records every interval until ctx ends.
func sweepExpiredTokens(ctx context.Context, repo expiredTokenPurger, interval time.Duration, now func() time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now())
			if err != nil {
				logger.Log.WithError(err).Error("Failed to purge expired refresh tokens")
				continue
			}
			if n > 0 {
				logger.Log.WithField("purged", n).Info("Expired refresh tokens purged")
			}
		}
	}
}

func Run() {
	config.LoadConfig(".")
	cfg := &config.AppConfig

	logger.Init()
	logger.SetLevel(cfg.Log.Level)
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	rateStore, err := NewRateStore(cfg.Redis)
	if err != nil {
		logger.Log.Fatalf("Error configuring rate limit store: %v", err)
	}

	tokenRepo := repository.NewTokenRepository(database)
	application, err := New(cfg, Deps{
		Users:     repository.NewUserRepository(database),
		Tokens:    tokenRepo,
		RateStore: rateStore,
	})
	if err != nil {
		logger.Log.Fatalf("Error wiring application: %v", err)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepExpiredTokens(sweepCtx, tokenRepo, sweepInterval, time.Now)

	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithFields(logrus.Fields{"port": port}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
