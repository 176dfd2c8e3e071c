package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	DriverPostgres = "postgres"
	DriverRemote   = "remote"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	BackendDriver string `env:"BACKEND_DRIVER" envDefault:"postgres"`

	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	RemoteEndpoint   string `env:"REMOTE_ENDPOINT"`
	RemoteProjectID  string `env:"REMOTE_PROJECT_ID"`
	RemoteAPIKey     string `env:"REMOTE_API_KEY"`
	RemoteDatabaseID string `env:"REMOTE_DATABASE_ID"`
	RemoteBucketID   string `env:"REMOTE_BUCKET_ID"`
	RemoteTimeoutSec int    `env:"REMOTE_TIMEOUT_SECONDS" envDefault:"15"`

	UsersCollection    string `env:"USERS_COLLECTION" envDefault:"users"`
	ProjectsCollection string `env:"PROJECTS_COLLECTION" envDefault:"projects"`

	SessionSecret     string `env:"SESSION_SECRET"`
	SessionTTLMinutes int    `env:"SESSION_TTL_MINUTES" envDefault:"10080"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LoginWindowMinutes int `env:"LOGIN_WINDOW_MINUTES" envDefault:"15"`
	LoginMaxAttempts   int `env:"LOGIN_MAX_ATTEMPTS" envDefault:"10"`

	MaxUploadMB int `env:"MAX_UPLOAD_MB" envDefault:"10"`

	ListingCacheTTLSec     int `env:"LISTING_CACHE_TTL_SECONDS" envDefault:"30"`
	ListingCacheMaxEntries int `env:"LISTING_CACHE_MAX_ENTRIES" envDefault:"1024"`
}

// LoadConfig carga la configuracion desde variables de entorno y valida lo que exige el driver elegido.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.BackendDriver = strings.ToLower(strings.TrimSpace(cfg.BackendDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.BackendDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
		if len(c.SessionSecret) < 32 {
			errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes for the postgres driver"))
		}
	case DriverRemote:
		for name, v := range map[string]string{
			"REMOTE_ENDPOINT":    c.RemoteEndpoint,
			"REMOTE_PROJECT_ID":  c.RemoteProjectID,
			"REMOTE_DATABASE_ID": c.RemoteDatabaseID,
			"REMOTE_BUCKET_ID":   c.RemoteBucketID,
		} {
			if strings.TrimSpace(v) == "" {
				errs = append(errs, fmt.Errorf("%s is required for the remote driver", name))
			}
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown BACKEND_DRIVER %q", c.BackendDriver))
	}
	if c.UsersCollection == "" || c.ProjectsCollection == "" {
		errs = append(errs, errors.New("collection names must not be empty"))
	}
	return errors.Join(errs...)
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowMinutes) * time.Minute
}

func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutSec) * time.Second
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c *Config) ListingCacheTTL() time.Duration {
	return time.Duration(c.ListingCacheTTLSec) * time.Second
}
