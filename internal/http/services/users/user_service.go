// Package users implementa el Resource Service de usuarios del tenant: traduce cada
// operación de dominio en una llamada HTTP al backend IAM y normaliza el resultado.
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	dto "github.com/dropDatabas3/userpanel/internal/http/dto/users"
	"github.com/dropDatabas3/userpanel/internal/metrics"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
)

// ResourcePath es el path del recurso relativo a la base URL del backend.
const ResourcePath = "/v1.0/iam/tenant/users"

// maxErrorBody limita lo que se lee de un cuerpo de error.
const maxErrorBody = 64 << 10

// Doer emite requests autenticados contra el backend IAM (ver iamclient.Client).
type Doer interface {
	Do(ctx context.Context, method, url string, body any) (*http.Response, error)
}

// UserService define las operaciones sobre usuarios del tenant.
// Cada llamada recibe el Doer autenticado del request en curso.
type UserService interface {
	Create(ctx context.Context, c Doer, req dto.CreateUserRequest) (*dto.UserType, error)
	Get(ctx context.Context, c Doer, id string) (*dto.UserDetailResponse, error)
	Update(ctx context.Context, c Doer, id string, req dto.UpdateUserRequest) (*dto.UserType, error)
	Deactivate(ctx context.Context, c Doer, id string) (*dto.UserType, error)
	Delete(ctx context.Context, c Doer, id string) (json.RawMessage, error)
	List(ctx context.Context, c Doer, rawQuery string) (json.RawMessage, error)
}

type userService struct {
	baseURL string
}

// NewUserService crea el service para la base URL del backend IAM
// (HYPERSCAL_BACKEND_BASE_URL). No guarda estado mutable.
func NewUserService(backendBaseURL string) UserService {
	return &userService{baseURL: strings.TrimRight(backendBaseURL, "/") + ResourcePath}
}

func (s *userService) userURL(id string, suffix ...string) string {
	u := s.baseURL + "/" + url.PathEscape(id)
	for _, p := range suffix {
		u += "/" + p
	}
	return u
}

func (s *userService) Create(ctx context.Context, c Doer, req dto.CreateUserRequest) (*dto.UserType, error) {
	var out dto.UserType
	if err := s.call(ctx, c, "create", "create user", http.MethodPost, s.baseURL, req, &out); err != nil {
		return nil, err
	}
	logger.From(ctx).Info("user created",
		logger.Layer("service"),
		logger.UserID(out.UUID),
		logger.Email(req.EmailAddress),
	)
	return &out, nil
}

func (s *userService) Get(ctx context.Context, c Doer, id string) (*dto.UserDetailResponse, error) {
	var out dto.UserDetailResponse
	if err := s.call(ctx, c, "read", "fetch user detail", http.MethodGet, s.userURL(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *userService) Update(ctx context.Context, c Doer, id string, req dto.UpdateUserRequest) (*dto.UserType, error) {
	var out dto.UserType
	if err := s.call(ctx, c, "update", "update user", http.MethodPut, s.userURL(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *userService) Deactivate(ctx context.Context, c Doer, id string) (*dto.UserType, error) {
	var out dto.UserType
	if err := s.call(ctx, c, "deactivate", "deactivate user", http.MethodPatch, s.userURL(id, "deactivate"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete devuelve el cuerpo crudo de la respuesta (nil si vino vacío).
func (s *userService) Delete(ctx context.Context, c Doer, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := s.call(ctx, c, "delete", "delete user", http.MethodDelete, s.userURL(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List hace passthrough del listado (paginación/filtros en rawQuery) para el ListView.
func (s *userService) List(ctx context.Context, c Doer, rawQuery string) (json.RawMessage, error) {
	u := s.baseURL
	if q := strings.TrimPrefix(rawQuery, "?"); q != "" {
		u += "?" + q
	}
	var out json.RawMessage
	if err := s.call(ctx, c, "list", "fetch users", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// call emite el request, normaliza errores y decodifica la respuesta en out.
// verb se usa para el mensaje sintetizado "Failed to <verb>: <status>".
func (s *userService) call(ctx context.Context, c Doer, op, verb, method, target string, body, out any) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("UserService."+op), logger.Upstream(target))
	start := time.Now()

	resp, err := c.Do(ctx, method, target, body)
	if err != nil {
		metrics.ObserveUpstream(op, 0, time.Since(start))
		log.Error("iam request failed", logger.Err(err))
		return &transportError{op: op, err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr dto.APIError
		// Cuerpo de error opcional: si no parsea, queda vacío.
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&apiErr)
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = fmt.Sprintf("Failed to %s: %d", verb, resp.StatusCode)
		}
		log.Warn("iam request rejected", logger.Status(resp.StatusCode), logger.String("message", msg))
		return &UpstreamError{Op: op, Status: resp.StatusCode, Code: apiErr.Code, Message: msg}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("iam response read failed", logger.Err(err))
		return &transportError{op: op, err: err}
	}
	if raw, ok := out.(*json.RawMessage); ok {
		if trimmed := strings.TrimSpace(string(b)); trimmed != "" {
			if !json.Valid(b) {
				log.Error("iam response is not json")
				return &transportError{op: op, err: fmt.Errorf("invalid json response")}
			}
			*raw = json.RawMessage(trimmed)
		}
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		log.Error("iam response decode failed", logger.Err(err))
		return &transportError{op: op, err: err}
	}
	return nil
}
