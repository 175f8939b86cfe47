// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/userpanel/internal/http/dto/health"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
)

type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Version    string
	IAMBaseURL string
	// RedisCheck es nil cuando el rate limiting corre en memoria.
	RedisCheck func(ctx context.Context) error
}

type healthService struct {
	deps Deps
}

func NewHealthService(deps Deps) HealthService {
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.HealthResponse{
		Version:    s.deps.Version,
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}
	critical, degraded := false, false

	// backend IAM (crítico: sin él no hay panel)
	if s.deps.IAMBaseURL == "" {
		resp.Components["iam"] = dto.HealthStatus{Status: "error", Message: "base url not configured"}
		critical = true
	} else {
		resp.Components["iam"] = dto.HealthStatus{Status: "ok", Message: s.deps.IAMBaseURL}
	}

	// redis (no crítico: el limiter deja pasar si falla)
	if s.deps.RedisCheck != nil {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.deps.RedisCheck(cctx)
		cancel()
		if err != nil {
			resp.Components["redis"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			degraded = true
			log.Error("redis unavailable", logger.Err(err))
		} else {
			resp.Components["redis"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		resp.Components["redis"] = dto.HealthStatus{Status: "disabled", Message: "memory rate limiter"}
	}

	switch {
	case critical:
		resp.Status = "unavailable"
	case degraded:
		resp.Status = "degraded"
	default:
		resp.Status = "ready"
	}
	return resp
}
