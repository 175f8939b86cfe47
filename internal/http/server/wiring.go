// Package server arma el handler HTTP del panel con todas sus dependencias.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/userpanel/internal/config"
	healthctrl "github.com/dropDatabas3/userpanel/internal/http/controllers/health"
	usersctrl "github.com/dropDatabas3/userpanel/internal/http/controllers/users"
	"github.com/dropDatabas3/userpanel/internal/http/router"
	healthsvc "github.com/dropDatabas3/userpanel/internal/http/services/health"
	usersvc "github.com/dropDatabas3/userpanel/internal/http/services/users"
	"github.com/dropDatabas3/userpanel/internal/iamclient"
	"github.com/dropDatabas3/userpanel/internal/metrics"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"github.com/dropDatabas3/userpanel/internal/rate"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
)

// Build construye el handler del panel. El cleanup devuelto cierra las conexiones
// abiertas (Redis) y debe llamarse al apagar el server.
func Build(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	if cfg == nil {
		return nil, nil, errors.New("server: nil config")
	}
	log := logger.From(ctx).With(logger.Layer("wiring"))

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for _, c := range closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	// 1. Sesión + cliente IAM
	verifier := iamclient.NewVerifier(iamclient.VerifierConfig{
		Secret:   cfg.Session.JWTSecret,
		Issuer:   cfg.Session.Issuer,
		CacheTTL: cfg.Session.CacheTTL,
	})
	if cfg.Session.JWTSecret == "" {
		log.Warn("session.jwt_secret empty: token signatures are NOT verified (dev mode)")
	}
	factory := iamclient.NewFactory(verifier, cfg.Session.CookieName, cfg.IAM.Timeout)

	// 2. Rate limiting: Redis si está configurado, memoria si no (o si no responde)
	var (
		limiter    rate.Limiter
		redisCheck func(context.Context) error
	)
	if cfg.Rate.Enabled {
		limiter, redisCheck = buildLimiter(ctx, cfg, &closers)
	}

	// 3. Métricas
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		h, err := metrics.Register(prometheus.DefaultRegisterer)
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("metrics register failed: %w", err)
		}
		metricsHandler = h
	}

	// 4. Controllers
	if cfg.Actions.DeactivateMode == "" || cfg.Actions.DeactivateMode == config.DeactivateNotImplemented {
		log.Warn("deactivate action answers 501; set actions.deactivate_mode=stub for the legacy contract or backend to call the IAM backend",
			logger.String("deactivate_mode", config.DeactivateNotImplemented))
	}
	users := usersctrl.NewControllers(usersctrl.Deps{
		Service:        usersvc.NewUserService(cfg.IAM.BaseURL),
		Clients:        usersctrl.FactoryProvider(factory),
		DeactivateMode: cfg.Actions.DeactivateMode,
		MaxFormBytes:   cfg.Server.MaxFormBytes,
	})
	health := healthctrl.NewHealthController(healthsvc.NewHealthService(healthsvc.Deps{
		Version:    cfg.App.Version,
		IAMBaseURL: cfg.IAM.BaseURL,
		RedisCheck: redisCheck,
	}))

	handler := router.New(router.Deps{
		Users:          users,
		Health:         health,
		RateLimiter:    limiter,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,

		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	log.Info("panel wired",
		logger.Upstream(cfg.IAM.BaseURL),
		logger.String("deactivate_mode", cfg.Actions.DeactivateMode),
		logger.Any("rate_enabled", cfg.Rate.Enabled),
		logger.Any("metrics_enabled", cfg.Metrics.Enabled),
	)
	return handler, cleanup, nil
}

func buildLimiter(ctx context.Context, cfg *config.Config, closers *[]func() error) (rate.Limiter, func(context.Context) error) {
	log := logger.From(ctx).With(logger.Layer("wiring"), logger.Component("rate"))

	if cfg.Redis.Addr == "" {
		log.Info("rate limiting in memory")
		return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window), nil
	}

	client := rdb.NewClient(&rdb.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, falling back to in-memory rate limiting",
			logger.String("addr", cfg.Redis.Addr), logger.Err(err))
		_ = client.Close()
		return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window), nil
	}

	*closers = append(*closers, client.Close)
	log.Info("rate limiting on redis", logger.String("addr", cfg.Redis.Addr))
	check := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return rate.NewRedisLimiter(client, cfg.Redis.Prefix, cfg.Rate.MaxRequests, cfg.Rate.Window), check
}
