package middlewares

import (
	"net/http"
	"strconv"
	"time"

	httperrors "github.com/dropDatabas3/userpanel/internal/http/errors"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"github.com/dropDatabas3/userpanel/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey limita por IP del cliente.
func IPRateKey(r *http.Request) string { return clientIP(r) }

// RateLimitConfig configura WithRateLimit. Limiter nil deshabilita el middleware.
type RateLimitConfig struct {
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
}

// WithRateLimit rechaza con 429 los requests que exceden la ventana. Si el limiter
// falla (Redis caído) el request pasa.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPRateKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Op("rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if res.WindowTTL > 0 {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.WindowTTL).Unix(), 10))
			}
			if !res.Allowed {
				secs := int(res.RetryAfter.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
