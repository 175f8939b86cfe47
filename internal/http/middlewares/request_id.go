package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// WithRequestID propaga el X-Request-ID del cliente o genera uno (uuid v4).
// El id queda en el contexto, en la respuesta y en el header del request, de donde
// lo toma el cliente IAM para reenviarlo al backend.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(headerRequestID))
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}
			r.Header.Set(headerRequestID, rid)
			w.Header().Set(headerRequestID, rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}
