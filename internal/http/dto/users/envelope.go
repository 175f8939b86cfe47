package users

import "strings"

// Action es la intención de mutación enviada en el campo _action del formulario.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDeactivate Action = "deactivate"
	ActionDelete     Action = "delete"
)

// Campos del formulario de acciones.
const (
	FieldAction          = "_action"
	FieldUserData        = "userData"
	FieldUserInformation = "userInformation"
	FieldUserID          = "userId"
)

// ParseAction normaliza el valor de _action. Devuelve ok=false si no es conocido.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionCreate, ActionUpdate, ActionDeactivate, ActionDelete:
		return a, true
	default:
		return a, false
	}
}

// ResultEnvelope es la respuesta de las acciones del panel.
// success=true => Data significativo; success=false => Error significativo.
type ResultEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK construye un envelope de éxito.
func OK(data any, message string) ResultEnvelope {
	return ResultEnvelope{Success: true, Data: data, Message: message}
}

// Fail construye un envelope de error.
func Fail(msg string) ResultEnvelope {
	return ResultEnvelope{Success: false, Error: msg}
}
