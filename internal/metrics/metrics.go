// Package metrics define las métricas Prometheus del panel.
// Vive en un paquete propio para evitar ciclos entre services, controllers y middlewares.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActionsTotal cuenta acciones del panel por intent y resultado (success|error|rejected).
	ActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "userpanel_actions_total",
		Help: "Acciones de gestión de usuarios procesadas",
	}, []string{"page", "intent", "outcome"})

	// UpstreamDuration mide llamadas al backend IAM.
	UpstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "userpanel_iam_request_duration_seconds",
		Help:    "Latencia de requests al backend IAM",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Register registra las métricas en el registry (o el default si es nil) y
// devuelve el handler de /metrics correspondiente.
func Register(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{ActionsTotal, UpstreamDuration, HTTPRequestsTotal, HTTPRequestDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// RecordAction incrementa el contador de acciones.
func RecordAction(page, intent, outcome string) {
	ActionsTotal.WithLabelValues(page, intent, outcome).Inc()
}

// ObserveUpstream registra la duración de una llamada al backend IAM.
// status 0 significa error de transporte.
func ObserveUpstream(op string, status int, d time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status/100) + "xx"
	}
	UpstreamDuration.WithLabelValues(op, label).Observe(d.Seconds())
}

// ObserveHTTP registra un request HTTP servido por el panel.
func ObserveHTTP(method, path string, status int, d time.Duration) {
	p := NormalizePath(path)
	HTTPRequestsTotal.WithLabelValues(method, p, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, p).Observe(d.Seconds())
}

var (
	uuidSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	hexSegmentRE   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// NormalizePath reemplaza segmentos dinámicos (uuids, ids numéricos, tokens) por
// ":param" para mantener acotada la cardinalidad de labels.
func NormalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 || uuidSegmentRE.MatchString(seg) || hexSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
		return true
	}
	_, err := strconv.Atoi(seg)
	return err == nil
}
