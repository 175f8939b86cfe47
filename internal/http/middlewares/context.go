package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxClientIPKey  ctxKey = "client_ip"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// clientIP devuelve la IP resuelta por WithClientIP o, sin ella, la de RemoteAddr.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ctxClientIPKey).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// forwardedFor devuelve el último hop de X-Forwarded-For: el que agregó el proxy
// de confianza. Los anteriores los controla el cliente.
func forwardedFor(r *http.Request) string {
	xf := r.Header.Values("X-Forwarded-For")
	for i := len(xf) - 1; i >= 0; i-- {
		hops := strings.Split(xf[i], ",")
		for j := len(hops) - 1; j >= 0; j-- {
			if h := strings.TrimSpace(hops[j]); h != "" {
				return h
			}
		}
	}
	return ""
}
