package errors

import (
	"encoding/json"
	"net/http"
)

// errorResponse controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Mantiene la forma del ResultEnvelope (success=false, error=...) para que el panel
// pueda tratar igual errores de middleware y de acciones.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Success: false,
		Code:    appErr.Code,
		Error:   appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
