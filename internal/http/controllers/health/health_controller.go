// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	"github.com/dropDatabas3/userpanel/internal/http/helpers"
	svc "github.com/dropDatabas3/userpanel/internal/http/services/health"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz (liveness, sin dependencias).
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := c.service.Check(ctx)
	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	log.Debug("health check completed", logger.String("status", resp.Status))
	helpers.WriteJSON(w, status, resp)
}
