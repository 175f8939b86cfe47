package middlewares

import (
	"context"
	"net/http"
)

// WithClientIP resuelve la IP del cliente una vez por request. Con trustProxy se
// usa X-Forwarded-For (solo detrás de un proxy que lo reescribe); si no, RemoteAddr.
// Logging y rate limiting leen la IP resuelta.
func WithClientIP(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteHost(r)
			if trustProxy {
				if fwd := forwardedFor(r); fwd != "" {
					ip = fwd
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxClientIPKey, ip)))
		})
	}
}
