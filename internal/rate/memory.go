package rate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el equivalente local de RedisLimiter. Cada réplica cuenta por su
// cuenta, así que el límite efectivo se multiplica por la cantidad de instancias.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	counters *gocache.Cache
	now      func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:      int64(max),
		Window:   window,
		counters: gocache.New(window, 2*window),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := windowKey("", key, winStart)

	// Add falla si ya existe: el primer hit de la ventana fija el TTL.
	_ = l.counters.Add(k, int64(0), l.Window)
	hits, err := l.counters.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, err
	}
	return result(hits, l.Max, winStart.Add(l.Window).Sub(now), l.Window), nil
}
