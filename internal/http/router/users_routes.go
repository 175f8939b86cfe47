package router

import (
	ctrl "github.com/dropDatabas3/userpanel/internal/http/controllers/users"
	mw "github.com/dropDatabas3/userpanel/internal/http/middlewares"
	"github.com/dropDatabas3/userpanel/internal/rate"
	"github.com/go-chi/chi/v5"
)

// RegisterUsersRoutes registra loaders, acciones y el proxy del listado.
// Las respuestas nunca se cachean (datos de usuarios).
func RegisterUsersRoutes(r chi.Router, c *ctrl.Controllers, limiter rate.Limiter) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Adapt(
			mw.WithNoStore(),
			mw.WithRateLimit(mw.RateLimitConfig{Limiter: limiter, KeyFunc: mw.IPRateKey}),
		)...)

		r.Route("/systems/users", func(r chi.Router) {
			r.Get("/", c.List.Load)
			r.Post("/", c.List.Action)
			r.Get("/{id}", c.Detail.Load)
			r.Post("/{id}", c.Detail.Action)
		})
		r.Get("/api/v1.0/iam/tenant/users", c.List.Proxy)
	})
}
