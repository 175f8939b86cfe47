// Package middlewares contiene los decoradores HTTP del panel: request id, logging,
// recover, CORS, cabeceras de seguridad y rate limiting.
package middlewares

import "net/http"

// Middleware es un decorador de http.Handler
type Middleware func(http.Handler) http.Handler

// Chain aplica middlewares de izquierda a derecha: Chain(h, A, B) ejecuta A -> B -> h.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Adapt convierte middlewares al formato func(http.Handler) http.Handler que
// espera chi (r.Use).
func Adapt(mws ...Middleware) []func(http.Handler) http.Handler {
	out := make([]func(http.Handler) http.Handler, len(mws))
	for i, m := range mws {
		out[i] = m
	}
	return out
}
