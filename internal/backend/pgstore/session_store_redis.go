package pgstore

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisSessionClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// redisSessionStore guarda session:{jti} -> userID y el indice session:user:{userID} con los jti del usuario.
type redisSessionStore struct {
	client  redisSessionClient
	prefix  string
	timeout time.Duration
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	if client == nil {
		return nil
	}
	return &redisSessionStore{
		client:  client,
		prefix:  "session:",
		timeout: 500 * time.Millisecond,
	}
}

func (s *redisSessionStore) Store(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+jti, userID, ttl).Err(); err != nil {
		return err
	}
	userKey := s.userKey(userID)
	if err := s.client.SAdd(ctx, userKey, jti).Err(); err != nil {
		return err
	}
	// El indice vive tanto como la sesion mas reciente.
	return s.client.Expire(ctx, userKey, ttl).Err()
}

func (s *redisSessionStore) Exists(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}

func (s *redisSessionStore) RevokeUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	userKey := s.userKey(userID)
	jtis, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, s.prefix+jti)
	}
	keys = append(keys, userKey)
	return s.client.Del(ctx, keys...).Err()
}

func (s *redisSessionStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}
