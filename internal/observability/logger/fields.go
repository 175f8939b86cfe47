package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// Upstream identifica la URL del backend IAM invocada.
func Upstream(v string) zap.Field { return zap.String("upstream", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// UserID es el usuario gestionado (no el operador autenticado).
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// Subject es el operador autenticado (claim sub de la sesión).
func Subject(v string) zap.Field { return zap.String("subject", v) }

// Intent es la mutación solicitada (create|update|deactivate|delete).
func Intent(v string) zap.Field { return zap.String("intent", v) }

// Phase es la fase del tracker (idle|submitting).
func Phase(v string) zap.Field { return zap.String("phase", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, client).
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }

func String(key, v string) zap.Field { return zap.String(key, v) }
