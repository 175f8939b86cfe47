package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	dto "github.com/dropDatabas3/userpanel/internal/http/dto/users"
)

// DetailTracker es el tracker de la página de detalle de un usuario.
type DetailTracker struct {
	*Tracker
	userID string
}

// NewDetailTracker crea el tracker para el usuario userID. Las acciones se envían a
// /systems/users/{userID}.
func NewDetailTracker(userID string, tr Transport, opts ...Option) *DetailTracker {
	path := CollectionPath + "/" + url.PathEscape(userID)
	return &DetailTracker{Tracker: newTracker(PageDetail, path, tr, opts...), userID: userID}
}

// UserID devuelve el usuario de la página.
func (d *DetailTracker) UserID() string { return d.userID }

// UpdateUser envía los cambios del formulario de detalle.
func (d *DetailTracker) UpdateUser(ctx context.Context, req dto.UpdateUserRequest) (bool, error) {
	fields, err := actionFields(dto.ActionUpdate, dto.FieldUserData, req)
	if err != nil {
		return false, err
	}
	return d.dispatch(ctx, IntentUpdate, fields)
}

func (d *DetailTracker) DeactivateUser(ctx context.Context) (bool, error) {
	return d.dispatch(ctx, IntentDeactivate, url.Values{dto.FieldAction: {string(dto.ActionDeactivate)}})
}

// DeleteUser elimina el usuario; al confirmarse navega a la lista reemplazando el historial.
func (d *DetailTracker) DeleteUser(ctx context.Context) (bool, error) {
	return d.dispatch(ctx, IntentDelete, url.Values{dto.FieldAction: {string(dto.ActionDelete)}})
}

// ListTracker es el tracker de la página de lista (alta y baja desde la tabla).
type ListTracker struct {
	*Tracker
}

func NewListTracker(tr Transport, opts ...Option) *ListTracker {
	return &ListTracker{Tracker: newTracker(PageList, CollectionPath, tr, opts...)}
}

// SetSuccessCallback registra fn para el próximo create/delete exitoso. Se invoca a lo
// sumo una vez y luego se descarta.
func (l *ListTracker) SetSuccessCallback(fn func()) { l.setSuccessCallback(fn) }

// CreateUser envía el formulario de alta.
func (l *ListTracker) CreateUser(ctx context.Context, req dto.CreateUserRequest) (bool, error) {
	fields, err := actionFields(dto.ActionCreate, dto.FieldUserInformation, req)
	if err != nil {
		return false, err
	}
	return l.dispatch(ctx, IntentCreate, fields)
}

// DeleteUser elimina el usuario id desde la lista.
func (l *ListTracker) DeleteUser(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("tracker: user id is required")
	}
	return l.dispatch(ctx, IntentDelete, url.Values{
		dto.FieldAction: {string(dto.ActionDelete)},
		dto.FieldUserID: {id},
	})
}

func actionFields(action dto.Action, field string, payload any) (url.Values, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tracker: encode %s: %w", field, err)
	}
	return url.Values{
		dto.FieldAction: {string(action)},
		field:           {string(b)},
	}, nil
}
