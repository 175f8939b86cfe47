package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/userpanel/internal/http/dto/users"
	"github.com/dropDatabas3/userpanel/internal/http/helpers"
	svc "github.com/dropDatabas3/userpanel/internal/http/services/users"
	"github.com/dropDatabas3/userpanel/internal/metrics"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"github.com/dropDatabas3/userpanel/internal/schema"
)

const pageList = "list"

// ListController maneja la página de lista (/systems/users) y el proxy de datos.
type ListController struct {
	service      svc.UserService
	clients      ClientProvider
	maxFormBytes int64
}

func NewListController(d Deps) *ListController {
	return &ListController{service: d.Service, clients: d.Clients, maxFormBytes: d.MaxFormBytes}
}

// Action maneja POST /systems/users con _action = create | delete.
// Sin _action se asume create (el diálogo de alta no lo envía).
func (c *ListController) Action(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Component("users.list"),
		logger.Op("ListController.Action"),
	)

	var action dto.Action
	defer recoverAction(w, log, pageList, &action)

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

	action = dto.Action(r.PostFormValue(dto.FieldAction))
	if strings.TrimSpace(string(action)) == "" {
		action = dto.ActionCreate
	}
	parsed, ok := dto.ParseAction(string(action))
	if !ok || (parsed != dto.ActionCreate && parsed != dto.ActionDelete) {
		log.Warn("invalid action", logger.Intent(string(action)))
		metrics.RecordAction(pageList, "invalid", "rejected")
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
	if action == dto.ActionCreate {
		status, env, err = c.create(r, client)
	} else {
		status, env, err = c.delete(r, client)
	}

	if err != nil {
		log.Error("user list action failed", logger.Err(err))
		metrics.RecordAction(pageList, string(action), "error")
		writeEnvelope(w, http.StatusInternalServerError, dto.Fail(err.Error()))
		return
	}
	outcome := "success"
	if !env.Success {
		outcome = "rejected"
	}
	metrics.RecordAction(pageList, string(action), outcome)
	log.Info("user list action completed", logger.Status(status), logger.String("outcome", outcome))
	writeEnvelope(w, status, env)
}

func (c *ListController) create(r *http.Request, client SessionClient) (int, dto.ResultEnvelope, error) {
	raw := helpers.FormValue(r, dto.FieldUserInformation, dto.FieldUserData)
	if raw == "" {
		return http.StatusBadRequest, dto.Fail("User data is required"), nil
	}
	var req dto.CreateUserRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return 0, dto.ResultEnvelope{}, fmt.Errorf("invalid user data: %w", err)
	}
	user, err := c.service.Create(r.Context(), client, req)
	if err != nil {
		return 0, dto.ResultEnvelope{}, err
	}
	return http.StatusOK, dto.OK(user, "User created successfully"), nil
}

func (c *ListController) delete(r *http.Request, client SessionClient) (int, dto.ResultEnvelope, error) {
	id := helpers.FormValue(r, dto.FieldUserID)
	if id == "" {
		return http.StatusBadRequest, dto.Fail("User ID is required"), nil
	}
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

// Load maneja GET /systems/users: definición de la tabla + schema del alta.
func (c *ListController) Load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Component("users.list"),
		logger.Op("ListController.Load"),
	)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("list loader panicked", logger.Any("panic", rec))
			helpers.WriteJSON(w, http.StatusInternalServerError, dto.LoaderError{
				Error:   "Failed to load user data",
				Details: fmt.Sprint(rec),
			})
		}
	}()

	if err := c.clients(r).VerifySession(ctx); err != nil {
		log.Warn("session verification failed", logger.Err(err))
		writeSessionError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ListPageData{
		Config: schema.UsersListView(),
		Schema: schema.CreateUserForm(),
	})
}

// Proxy maneja GET /api/v1.0/iam/tenant/users: reenvía el listado del backend IAM
// (paginación y filtros en la query) a la tabla de la lista.
func (c *ListController) Proxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Component("users.list"),
		logger.Op("ListController.Proxy"),
	)

	client := c.clients(r)
	if err := client.VerifySession(ctx); err != nil {
		log.Warn("session verification failed", logger.Err(err))
		writeSessionError(w, err)
		return
	}

	body, err := c.service.List(ctx, client, r.URL.RawQuery)
	if err != nil {
		var ue *svc.UpstreamError
		if errors.As(err, &ue) && ue.Status >= 400 && ue.Status < 500 {
			helpers.WriteErrorJSON(w, ue.Status, ue.Message)
			return
		}
		log.Error("failed to list users", logger.Err(err))
		helpers.WriteJSON(w, http.StatusBadGateway, dto.LoaderError{
			Error:   "Failed to load user data",
			Details: err.Error(),
		})
		return
	}
	if len(body) == 0 {
		body = []byte("[]")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
