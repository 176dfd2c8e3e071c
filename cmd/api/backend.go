package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"folio/internal/backend"
	"folio/internal/backend/memstore"
	"folio/internal/backend/pgstore"
	"folio/internal/backend/remote"
	"folio/internal/config"
	"folio/internal/db"
)

// backendSet son las tres superficies del backend elegido. Opener es nil si los archivos los sirve el backend.
type backendSet struct {
	Documents backend.Documents
	Files     backend.Files
	Accounts  backend.Accounts
	Opener    backend.ObjectOpener
	Close     func()
}

func newBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger, redisClient *redis.Client) (backendSet, error) {
	filesBaseURL := strings.TrimRight(cfg.PublicBaseURL, "/")

	switch cfg.BackendDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory backend; data is lost on restart")
		files := memstore.NewFiles(filesBaseURL)
		return backendSet{
			Documents: memstore.NewDocuments(),
			Files:     files,
			Accounts:  memstore.NewAccounts(cfg.SessionTTL()),
			Opener:    files,
			Close:     func() {},
		}, nil

	case config.DriverRemote:
		client := remote.NewClient(remote.Config{
			Endpoint:   cfg.RemoteEndpoint,
			ProjectID:  cfg.RemoteProjectID,
			APIKey:     cfg.RemoteAPIKey,
			DatabaseID: cfg.RemoteDatabaseID,
			BucketID:   cfg.RemoteBucketID,
			Timeout:    cfg.RemoteTimeout(),
		}, logger)
		return backendSet{
			Documents: remote.NewDocuments(client),
			Files:     remote.NewFiles(client),
			Accounts:  remote.NewAccounts(client),
			Close:     func() {},
		}, nil

	case config.DriverPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseURL, logger); err != nil {
				return backendSet{}, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return backendSet{}, fmt.Errorf("db connect: %w", err)
		}
		sessions := pgstore.NewMemorySessionStore()
		if redisClient != nil {
			sessions = pgstore.NewRedisSessionStore(redisClient)
		}
		tokens := pgstore.NewTokenService(cfg.SessionSecret, cfg.SessionTTL(), sessions)
		files := pgstore.NewFiles(pool, filesBaseURL)
		return backendSet{
			Documents: pgstore.NewDocuments(pool, logger),
			Files:     files,
			Accounts:  pgstore.NewAccounts(pool, tokens, logger),
			Opener:    files,
			Close:     pool.Close,
		}, nil
	}
	return backendSet{}, fmt.Errorf("unknown backend driver %q", cfg.BackendDriver)
}
