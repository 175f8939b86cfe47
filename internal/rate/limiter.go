// Package rate implementa limitadores fixed-window para las rutas del panel:
// uno distribuido sobre Redis y uno en memoria para instancias sin Redis.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Result es el resultado de consultar el limitador para una clave.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func windowKey(prefix, key string, winStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())
}

func result(hits, max int64, ttl, window time.Duration) Result {
	if ttl < 0 {
		ttl = window
	}
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= max,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}

// RedisLimiter cuenta hits por ventana con INCR + EXPIRE NX en una transacción.
type RedisLimiter struct {
	Client rdb.Cmdable
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisLimiter(client rdb.Cmdable, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{Client: client, Prefix: prefix, Max: int64(max), Window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := windowKey(l.Prefix, key, time.Now().UTC().Truncate(l.Window))

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.Window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate: redis pipeline: %w", err)
	}
	return result(incr.Val(), l.Max, ttl.Val(), l.Window), nil
}
