package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisLoginFailureScript suma un fallo y fija el vencimiento solo en el primero,
// asi la ventana corre desde el primer fallo y un login exitoso (DEL) la reinicia.
const redisLoginFailureScript = `
local failures = redis.call("INCR", KEYS[1])
if failures == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return failures
`

type redisLoginClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisLoginLimiter comparte el conteo de fallos entre instancias. Si redis no responde deja pasar.
type redisLoginLimiter struct {
	client  redisLoginClient
	logger  *zap.Logger
	window  time.Duration
	max     int
	prefix  string
	timeout time.Duration
}

func NewRedisLoginLimiter(client *redis.Client, logger *zap.Logger, window time.Duration, max int) LoginLimiter {
	if client == nil {
		return nil
	}
	return newRedisLoginLimiter(client, logger, window, max)
}

func newRedisLoginLimiter(client redisLoginClient, logger *zap.Logger, window time.Duration, max int) *redisLoginLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisLoginLimiter{
		client:  client,
		logger:  logger,
		window:  window,
		max:     max,
		prefix:  "login:failures:",
		timeout: 500 * time.Millisecond,
	}
}

func (l *redisLoginLimiter) Allow(key string) bool {
	key = normalizeLimiterKey(key)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	raw, err := l.client.Get(ctx, l.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return true
	}
	failures, err := strconv.Atoi(raw)
	if err != nil {
		l.logger.Warn("login limiter counter corrupt", zap.String("key", l.prefix+key), zap.Error(err))
		return true
	}
	return failures < l.max
}

func (l *redisLoginLimiter) Failure(key string) {
	key = normalizeLimiterKey(key)
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	windowMs := l.window.Milliseconds()
	if err := l.client.Eval(ctx, redisLoginFailureScript, []string{l.prefix + key}, windowMs).Err(); err != nil {
		l.logger.Warn("record login failure", zap.Error(err))
	}
}

func (l *redisLoginLimiter) Reset(key string) {
	key = normalizeLimiterKey(key)
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		l.logger.Warn("reset login failures", zap.Error(err))
	}
}
