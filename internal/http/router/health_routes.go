package router

import (
	ctrl "github.com/dropDatabas3/userpanel/internal/http/controllers/health"
	"github.com/go-chi/chi/v5"
)

// RegisterHealthRoutes registra /healthz y /readyz. Públicos, sin rate limit.
func RegisterHealthRoutes(r chi.Router, c *ctrl.HealthController) {
	r.Get("/healthz", c.Healthz)
	r.Get("/readyz", c.Readyz)
}
