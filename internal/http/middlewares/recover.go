package middlewares

import (
	"net/http"
	"runtime/debug"

	httperrors "github.com/dropDatabas3/userpanel/internal/http/errors"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
)

// WithRecover captura panics y devuelve un 500 en lugar de cortar la conexión.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
						logger.String("stack", string(debug.Stack())),
					)
					httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("panic recovered"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
