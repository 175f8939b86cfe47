// Package health contiene los DTOs del health check.
package health

import "time"

// HealthResponse es la respuesta de GET /readyz.
type HealthResponse struct {
	Status     string                  `json:"status"` // ready | degraded | unavailable
	Version    string                  `json:"version,omitempty"`
	Components map[string]HealthStatus `json:"components"`
	Timestamp  time.Time               `json:"timestamp"`
}

type HealthStatus struct {
	Status  string `json:"status"` // ok | error | disabled
	Message string `json:"message,omitempty"`
}
