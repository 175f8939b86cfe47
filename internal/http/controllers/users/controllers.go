// Package users contiene los controllers de las páginas de usuarios del tenant:
// loaders (GET) y acciones de formulario (POST) con respuesta ResultEnvelope.
package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/userpanel/internal/config"
	dto "github.com/dropDatabas3/userpanel/internal/http/dto/users"
	httperrors "github.com/dropDatabas3/userpanel/internal/http/errors"
	"github.com/dropDatabas3/userpanel/internal/http/helpers"
	svc "github.com/dropDatabas3/userpanel/internal/http/services/users"
	"github.com/dropDatabas3/userpanel/internal/iamclient"
	"github.com/dropDatabas3/userpanel/internal/metrics"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"go.uber.org/zap"
)

// SessionClient es el cliente autenticado del request (ver iamclient.Client).
type SessionClient interface {
	svc.Doer
	VerifySession(ctx context.Context) error
}

// ClientProvider construye el SessionClient a partir del request entrante.
type ClientProvider func(r *http.Request) SessionClient

// FactoryProvider adapta una iamclient.Factory a ClientProvider.
func FactoryProvider(f *iamclient.Factory) ClientProvider {
	return func(r *http.Request) SessionClient { return f.FromRequest(r) }
}

// Deps son las dependencias de los controllers de usuarios.
type Deps struct {
	Service        svc.UserService
	Clients        ClientProvider
	DeactivateMode string
	MaxFormBytes   int64
}

// Controllers agrupa los controllers del dominio users.
type Controllers struct {
	Detail *DetailController
	List   *ListController
}

// NewControllers crea el agregador de controllers de usuarios.
func NewControllers(d Deps) *Controllers {
	if d.DeactivateMode == "" {
		d.DeactivateMode = config.DeactivateNotImplemented
	}
	return &Controllers{
		Detail: NewDetailController(d),
		List:   NewListController(d),
	}
}

// =================================================================================
// HELPERS COMPARTIDOS
// =================================================================================

func writeEnvelope(w http.ResponseWriter, status int, env dto.ResultEnvelope) {
	helpers.WriteJSON(w, status, env)
}

// withSubject agrega el subject de la sesión verificada al logger, si está disponible.
func withSubject(log *zap.Logger, c SessionClient) *zap.Logger {
	if sc, ok := c.(interface{ Session() *iamclient.Session }); ok {
		if s := sc.Session(); s != nil && s.Subject != "" {
			return log.With(logger.Subject(s.Subject))
		}
	}
	return log
}

// writeSessionError responde 401 según la causa de la falla de sesión.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, iamclient.ErrSessionExpired):
		httperrors.WriteError(w, httperrors.ErrSessionExpired.WithCause(err))
	case errors.Is(err, iamclient.ErrNoSession):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("missing session").WithCause(err))
	default:
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("invalid session").WithCause(err))
	}
}

// writeFormError responde a una falla de parseo del body del formulario.
func writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, helpers.ErrFormTooLarge) {
		httperrors.WriteError(w, httperrors.ErrBodyTooLarge.WithCause(err))
		return
	}
	httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid form body").WithCause(err))
}

// recoverAction convierte un panic en la acción en un envelope 500. Debe usarse con defer.
func recoverAction(w http.ResponseWriter, log *zap.Logger, page string, intent *dto.Action) {
	if rec := recover(); rec != nil {
		log.Error("action panicked", logger.Any("panic", rec), logger.Intent(string(*intent)))
		metrics.RecordAction(page, intentLabel(*intent), "error")
		writeEnvelope(w, http.StatusInternalServerError, dto.Fail("Failed to perform user operation"))
	}
}

func intentLabel(a dto.Action) string {
	if _, ok := dto.ParseAction(string(a)); ok {
		return string(a)
	}
	return "invalid"
}
