package users

import (
	"errors"
	"net/http"
)

// ErrUnknown es el mensaje genérico para fallas de transporte o de parseo.
var ErrUnknown = errors.New("Unknown error occurred")

// UpstreamError es una respuesta no-2xx del backend IAM.
type UpstreamError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// IsNotFound indica si el backend respondió 404.
func IsNotFound(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Status == http.StatusNotFound
}

// transportError normaliza fallas heterogéneas (red, contexto, JSON inválido) a un
// único mensaje, conservando la causa para errors.Is/As y para logs.
type transportError struct {
	op  string
	err error
}

func (e *transportError) Error() string { return ErrUnknown.Error() }

func (e *transportError) Unwrap() []error { return []error{ErrUnknown, e.err} }

// Cause devuelve el error original (para logs).
func (e *transportError) Cause() error { return e.err }
