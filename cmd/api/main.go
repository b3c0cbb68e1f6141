package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"contacts-api/internal/auth"
	"contacts-api/internal/config"
	"contacts-api/internal/contact"
	"contacts-api/internal/database"
	httpServer "contacts-api/internal/http"
	"contacts-api/internal/logging"
	"contacts-api/internal/user"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_backend", cfg.Auth.TokenBackend,
	)

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// The contact list cache is optional; without Redis every list hits Postgres.
	var listCache *contact.ListCache
	if cfg.Redis.Enabled() {
		redisClient, err := initRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
		listCache = contact.NewListCache(redisClient)
		logger.Info("contact list cache enabled", "redis", cfg.Redis.Address())
	} else {
		logger.Info("contact list cache disabled")
	}

	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	userRepo := user.NewRepository(db)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	authService := auth.NewService(
		userRepo,
		hasher,
		tokenService,
		auth.NewIDTokenVerifier(cfg.Google.ClientID),
		auth.NewAccessTokenVerifier(),
		cfg.Auth.TokenDuration,
	)
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(tokenService)

	contactRepo := contact.NewRepository(db)
	contactService := contact.NewService(contactRepo, listCache, logger)
	contactHandler := contact.NewHandler(contactService)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, contactHandler, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// initTokenService picks the configured token backend.
func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenBackend {
	case "paseto":
		return auth.NewPasetoService(cfg.PasetoKey)
	default:
		return auth.NewJWTService(cfg.Secret)
	}
}
