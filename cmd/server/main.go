// Package main is the entry point for the sessionhub API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"sessionhub/internal/config"
	"sessionhub/internal/domain/auth"
	"sessionhub/internal/domain/health"
	"sessionhub/internal/domain/users"
	"sessionhub/internal/infrastructure/cache"
	v1 "sessionhub/internal/infrastructure/http/v1"
	"sessionhub/internal/infrastructure/http/v1/handlers"
	"sessionhub/internal/infrastructure/http/v1/middleware"
	"sessionhub/internal/infrastructure/objectstore"
	"sessionhub/internal/infrastructure/ratelimit"
	"sessionhub/internal/infrastructure/storage/postgres"
	"sessionhub/internal/infrastructure/storage/postgres/auth_repo"
	"sessionhub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Env == config.EnvDevelopment,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := context.Background()
	log.Infow("starting sessionhub server", "env", cfg.Env)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Infow("database connection established", "pool", pool.Stats())

	txManager := postgres.NewTxManager(pool)

	// --- Redis ---
	redisCfg := cache.DefaultRedisConfig(cfg.Redis.Addr)
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisClient, err := cache.NewRedisClient(ctx, redisCfg)
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()
	log.Info("redis connection established")

	// --- Object storage ---
	store, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Fatalw("failed to create object storage client", "error", err)
	}

	// --- Auth ---
	accountRepo := auth_repo.NewAccountRepo(txManager)
	roleRepo := auth_repo.NewRoleRepo(txManager)
	permRepo := auth_repo.NewPermissionRepo(txManager)

	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)
	jwtConfig.AccessTTL = cfg.JWT.AccessTTL
	jwtConfig.RefreshTTL = cfg.JWT.RefreshTTL

	revocations := cache.NewRevocationStore(redisClient, cfg.RevocationTimeout)
	tokens := auth.NewTokenService(jwtConfig, revocations)
	resolver := auth.NewResolver(permRepo)

	authService := auth.NewService(
		accountRepo,
		roleRepo,
		txManager,
		tokens,
		auth.NewPasswordHasher(auth.DefaultArgon2Params()),
		auth.DefaultServiceConfig(),
	)
	usersService := users.NewService(accountRepo, resolver, txManager)
	healthService := health.NewService(
		cfg.Env,
		pool.Ping,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		store,
		cfg.HealthTimeout,
	)

	metrics := middleware.NewMetrics("sessionhub")
	if err := metrics.Register(pool.Collector("sessionhub")); err != nil {
		log.Fatalw("failed to register pool metrics", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:        log,
		Authenticator: auth.NewAuthenticator(tokens, accountRepo, resolver),
		Tokens:        middleware.TokenSource{AllowBearer: !cfg.IsProduction()},
		AuthService:   authService,
		UsersService:  usersService,
		HealthService: healthService,
		Cookies:       handlers.CookieConfig{Secure: cfg.IsProduction()},
		Limiter:       newLimiter(cfg.RateLimitBackend, redisClient),
		RateLimits:    v1.DefaultRateLimits(),
		Metrics:       metrics,
		CORSOrigins:   middleware.ParseOrigins(cfg.CORSOrigins),
		Production:    cfg.IsProduction(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.Port, "rate_limit", cfg.RateLimitBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func newLimiter(backend string, client *redis.Client) ratelimit.Limiter {
	switch backend {
	case config.RateLimitMemory:
		return ratelimit.NewMemoryLimiter()
	case config.RateLimitOff:
		return nil
	default:
		return ratelimit.NewRedisLimiter(client)
	}
}
