package middlewares

import (
	"net/http"
	"strings"
)

// WithCORS habilita CORS con credenciales para los orígenes del panel.
// "*" refleja cualquier origen.
func WithCORS(allowed []string) Middleware {
	trim := func(s string) string { return strings.TrimRight(strings.TrimSpace(s), "/") }

	origins := make([]string, 0, len(allowed))
	for _, v := range allowed {
		if v = trim(v); v != "" {
			origins = append(origins, v)
		}
	}

	return func(next http.Handler) http.Handler {
		if len(origins) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := trim(r.Header.Get("Origin"))
			h := w.Header()
			h.Add("Vary", "Origin")

			match := false
			for _, a := range origins {
				if origin != "" && (a == "*" || strings.EqualFold(origin, a)) {
					match = true
					break
				}
			}
			if match {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")
				h.Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
