package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Scopes de los limites por email: cada flujo cuenta en su propia ventana.
const (
	ScopeForgotPassword = "forgot-password"
	ScopeContact        = "contact"
)

const redisLimiterTimeout = 500 * time.Millisecond

// El TTL se fija con el primer hit, asi los reintentos no alargan la ventana.
const windowCounterScript = `
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return hits
`

type scriptRunner interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisWindowLimiter struct {
	redis  scriptRunner
	logger *zap.Logger
	scope  string
	window time.Duration
	max    int64
}

// NewRedisRateLimiter comparte entre instancias el limite por email de forgot-password o contacto.
func NewRedisRateLimiter(client *redis.Client, logger *zap.Logger, scope string, window time.Duration, max int) RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisWindowLimiter{
		redis:  client,
		logger: logger,
		scope:  scope,
		window: window,
		max:    int64(max),
	}
}

func (l *redisWindowLimiter) key(emailAddr string) string {
	return "specflow:ratelimit:" + l.scope + ":" + emailAddr
}

// Allow falla abierto si Redis no responde.
func (l *redisWindowLimiter) Allow(emailAddr string) bool {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisLimiterTimeout)
	defer cancel()

	hits, err := l.redis.Eval(ctx, windowCounterScript, []string{l.key(emailAddr)}, l.window.Milliseconds()).Int64()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", zap.String("scope", l.scope), zap.Error(err))
		return true
	}
	if hits > l.max {
		l.logger.Info("rate limit exceeded", zap.String("scope", l.scope), zap.Int64("hits", hits))
		return false
	}
	return true
}
