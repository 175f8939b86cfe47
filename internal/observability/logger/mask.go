package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Email crea un campo "email" enmascarado. Nunca loguear emails de usuarios en claro.
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// MaskEmail deja la primera letra del local-part y del primer label del dominio:
// "ann.smith@example.com" -> "a…@e….com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" {
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	if len(local) > 1 {
		local = local[:1] + "…"
	}
	labels := strings.Split(domain, ".")
	if len(labels[0]) > 1 {
		labels[0] = labels[0][:1] + "…"
	}
	return local + "@" + strings.Join(labels, ".")
}
