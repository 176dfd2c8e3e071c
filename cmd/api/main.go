package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"folio/internal/config"
	apihttp "folio/internal/http"
	"folio/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed; falling back to in-memory stores", zap.Error(err))
			_ = client.Close()
		} else {
			redisClient = client
			defer redisClient.Close()
		}
		cancel()
	}

	store, err := newBackend(ctx, cfg, logger, redisClient)
	if err != nil {
		logger.Fatal("backend init", zap.String("driver", cfg.BackendDriver), zap.Error(err))
	}
	defer store.Close()

	limiter := service.NewLoginLimiter(cfg.LoginWindow(), cfg.LoginMaxAttempts)
	if redisClient != nil {
		limiter = service.NewRedisLoginLimiter(redisClient, logger, cfg.LoginWindow(), cfg.LoginMaxAttempts)
	}

	writer := service.NewSchemaWriter(logger, store.Documents)
	profiles := service.NewProfileService(logger, store.Documents, writer, cfg.UsersCollection)
	media := service.NewMediaService(logger, store.Files, cfg.MaxUploadBytes())
	projects := service.NewProjectService(logger, store.Documents, writer, profiles, media, cfg.ProjectsCollection).
		UseListingCache(service.NewListingCache(cfg.ListingCacheTTL(), cfg.ListingCacheMaxEntries))
	sessions := service.SessionFactory{
		Logger:   logger,
		Accounts: store.Accounts,
		Profiles: profiles,
		Projects: projects,
		Limiter:  limiter,
	}

	router := apihttp.NewRouter(logger, sessions, apihttp.Handlers{
		Auth:     apihttp.NewAuthHandler(logger),
		Profile:  apihttp.NewProfileHandler(logger, media),
		Projects: apihttp.NewProjectHandler(logger, projects, media),
		Media:    apihttp.NewMediaHandler(logger, media, store.Opener),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("driver", cfg.BackendDriver))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
