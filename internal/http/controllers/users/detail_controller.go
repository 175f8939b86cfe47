package users

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dropDatabas3/userpanel/internal/config"
	dto "github.com/dropDatabas3/userpanel/internal/http/dto/users"
	"github.com/dropDatabas3/userpanel/internal/http/helpers"
	svc "github.com/dropDatabas3/userpanel/internal/http/services/users"
	"github.com/dropDatabas3/userpanel/internal/metrics"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"github.com/dropDatabas3/userpanel/internal/schema"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const pageDetail = "detail"

// DetailController maneja la página de detalle de un usuario (/systems/users/{id}).
type DetailController struct {
	service        svc.UserService
	clients        ClientProvider
	deactivateMode string
	maxFormBytes   int64
}

func NewDetailController(d Deps) *DetailController {
	return &DetailController{
		service:        d.Service,
		clients:        d.Clients,
		deactivateMode: d.DeactivateMode,
		maxFormBytes:   d.MaxFormBytes,
	}
}

// Action maneja POST /systems/users/{id} con _action = update | deactivate | delete.
func (c *DetailController) Action(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Component("users.detail"),
		logger.Op("DetailController.Action"),
	)

	var action dto.Action
	defer recoverAction(w, log, pageDetail, &action)

	// 1. Id de la ruta
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("missing user id")
		metrics.RecordAction(pageDetail, "invalid", "rejected")
		writeEnvelope(w, http.StatusBadRequest, dto.Fail("User ID is required"))
		return
	}
	log = log.With(logger.UserID(id))

	// 2. Form + sesión
	if err := helpers.ReadForm(w, r, c.maxFormBytes); err != nil {
		log.Warn("invalid form body", logger.Err(err))
		writeFormError(w, err)
		return
	}
	client := c.clients(r)
	if err := client.VerifySession(ctx); err != nil {
		log.Warn("session verification failed", logger.Err(err))
		writeSessionError(w, err)
		return
	}
	log = withSubject(log, client)

	// 3. Dispatch por intent
	action = dto.Action(r.PostFormValue(dto.FieldAction))
	parsed, ok := dto.ParseAction(string(action))
	if !ok || parsed == dto.ActionCreate {
		log.Warn("invalid action", logger.Intent(string(action)))
		metrics.RecordAction(pageDetail, "invalid", "rejected")
		writeEnvelope(w, http.StatusBadRequest, dto.Fail("Invalid action"))
		return
	}
	action = parsed
	log = log.With(logger.Intent(string(action)))

	var (
		status int
		env    dto.ResultEnvelope
		err    error
	)
	switch action {
	case dto.ActionUpdate:
		status, env, err = c.update(r, client, id)
	case dto.ActionDeactivate:
		status, env, err = c.deactivate(r, client, id)
	case dto.ActionDelete:
		status, env, err = c.delete(r, client, id)
	}

	if err != nil {
		log.Error("user detail action failed", logger.Err(err))
		metrics.RecordAction(pageDetail, string(action), "error")
		writeEnvelope(w, http.StatusInternalServerError, dto.Fail(err.Error()))
		return
	}
	outcome := "success"
	if !env.Success {
		outcome = "rejected"
	}
	metrics.RecordAction(pageDetail, string(action), outcome)
	log.Info("user detail action completed", logger.Status(status), logger.String("outcome", outcome))
	writeEnvelope(w, status, env)
}

func (c *DetailController) update(r *http.Request, client SessionClient, id string) (int, dto.ResultEnvelope, error) {
	raw := r.PostFormValue(dto.FieldUserData)
	if strings.TrimSpace(raw) == "" {
		return http.StatusBadRequest, dto.Fail("User data is required for update"), nil
	}
	var req dto.UpdateUserRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return 0, dto.ResultEnvelope{}, fmt.Errorf("invalid user data: %w", err)
	}
	user, err := c.service.Update(r.Context(), client, id, req)
	if err != nil {
		return 0, dto.ResultEnvelope{}, err
	}
	return http.StatusOK, dto.OK(user, "User updated successfully"), nil
}

// deactivate depende de actions.deactivate_mode: el backend todavía no expone un
// contrato estable para la desactivación.
func (c *DetailController) deactivate(r *http.Request, client SessionClient, id string) (int, dto.ResultEnvelope, error) {
	switch c.deactivateMode {
	case config.DeactivateStub:
		logger.From(r.Context()).Warn("deactivation stubbed, backend not called", logger.UserID(id))
		return http.StatusOK, dto.OK(dto.DeactivateStubData{ID: id}, fmt.Sprintf("User %s deactivated successfully", id)), nil
	case config.DeactivateBackend:
		user, err := c.service.Deactivate(r.Context(), client, id)
		if err != nil {
			return 0, dto.ResultEnvelope{}, err
		}
		return http.StatusOK, dto.OK(user, fmt.Sprintf("User %s deactivated successfully", id)), nil
	default:
		return http.StatusNotImplemented, dto.Fail("User deactivation is not implemented"), nil
	}
}

func (c *DetailController) delete(r *http.Request, client SessionClient, id string) (int, dto.ResultEnvelope, error) {
	body, err := c.service.Delete(r.Context(), client, id)
	if err != nil {
		return 0, dto.ResultEnvelope{}, err
	}
	var data any
	if len(body) > 0 {
		data = body
	}
	return http.StatusOK, dto.OK(data, fmt.Sprintf("User %s deleted successfully", id)), nil
}

// Load maneja GET /systems/users/{id}: datos del usuario + schema del formulario.
func (c *DetailController) Load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Component("users.detail"),
		logger.Op("DetailController.Load"),
	)

	client := c.clients(r)
	if err := client.VerifySession(ctx); err != nil {
		log.Warn("session verification failed", logger.Err(err))
		writeSessionError(w, err)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		helpers.WriteErrorJSON(w, http.StatusBadRequest, "User ID is required")
		return
	}

	detail, err := c.service.Get(ctx, client, id)
	if err != nil {
		c.writeLoadError(w, log.With(logger.UserID(id)), err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.DetailPageData{
		UserDetailData: detail,
		Schema:         schema.UserDetailForm(),
	})
}

func (c *DetailController) writeLoadError(w http.ResponseWriter, log *zap.Logger, err error) {
	if svc.IsNotFound(err) {
		log.Info("user not found")
		helpers.WriteJSON(w, http.StatusNotFound, dto.LoaderError{Error: "User not found"})
		return
	}
	log.Error("failed to load user detail", logger.Err(err))
	helpers.WriteJSON(w, http.StatusInternalServerError, dto.LoaderError{
		Error:   "Failed to load user detail data",
		Details: err.Error(),
	})
}
