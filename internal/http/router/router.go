// Package router arma el árbol de rutas chi del panel.
package router

import (
	"net/http"

	healthctrl "github.com/dropDatabas3/userpanel/internal/http/controllers/health"
	usersctrl "github.com/dropDatabas3/userpanel/internal/http/controllers/users"
	httperrors "github.com/dropDatabas3/userpanel/internal/http/errors"
	mw "github.com/dropDatabas3/userpanel/internal/http/middlewares"
	"github.com/dropDatabas3/userpanel/internal/rate"
	"github.com/go-chi/chi/v5"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Users  *usersctrl.Controllers
	Health *healthctrl.HealthController

	// Opcionales
	RateLimiter    rate.Limiter
	MetricsHandler http.Handler
	MetricsPath    string
	CORSOrigins    []string

	// TrustProxyHeaders habilita X-Forwarded-For para la IP del cliente.
	TrustProxyHeaders bool
}

// New crea el handler raíz. Orden de middlewares: recover -> client ip -> request id -> logging
// -> cabeceras; el rate limiting solo aplica a las rutas de usuarios.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.Adapt(
		mw.WithRecover(),
		mw.WithClientIP(deps.TrustProxyHeaders),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(deps.CORSOrigins),
	)...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if deps.Health != nil {
		RegisterHealthRoutes(r, deps.Health)
	}
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, deps.MetricsHandler)
	}
	if deps.Users != nil {
		RegisterUsersRoutes(r, deps.Users, deps.RateLimiter)
	}
	return r
}
