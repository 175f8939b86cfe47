// Package tracker coordina el ciclo de vida de una mutación por página (lista o detalle):
// una sola submission en vuelo, clasificación del resultado y efectos posteriores
// (navegación, callback de éxito).
//
// El estado se transiciona con Transition, una función pura; el Tracker solo aplica
// el estado resultante y despacha los efectos que ésta devuelve.
package tracker

import "encoding/json"

// Intent es la mutación solicitada. IntentNone indica que no hay submission activa.
type Intent string

const (
	IntentNone       Intent = ""
	IntentCreate     Intent = "create"
	IntentUpdate     Intent = "update"
	IntentDeactivate Intent = "deactivate"
	IntentDelete     Intent = "delete"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

func (p Phase) String() string {
	if p == PhaseSubmitting {
		return "submitting"
	}
	return "idle"
}

// Status es el resultado visible del último ciclo. StatusNone = sin mensaje que mostrar.
type Status string

const (
	StatusNone    Status = ""
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Page determina qué efectos dispara un éxito.
type Page int

const (
	PageDetail Page = iota
	PageList
)

func (p Page) String() string {
	if p == PageList {
		return "list"
	}
	return "detail"
}

// CollectionPath es la ruta de la lista de usuarios.
const CollectionPath = "/systems/users"

var successMessages = map[Intent]string{
	IntentCreate:     "User created successfully",
	IntentUpdate:     "User updated successfully",
	IntentDeactivate: "User deactivated successfully",
	IntentDelete:     "User deleted successfully",
}

// State es el estado observable de un Tracker. Es un valor: las copias son snapshots.
type State struct {
	ActiveIntent Intent
	Phase        Phase
	Message      string
	Status       Status
}

func (s State) busyWith(i Intent) bool { return s.Phase == PhaseSubmitting && s.ActiveIntent == i }

func (s State) IsCreating() bool     { return s.busyWith(IntentCreate) }
func (s State) IsUpdating() bool     { return s.busyWith(IntentUpdate) }
func (s State) IsDeactivating() bool { return s.busyWith(IntentDeactivate) }
func (s State) IsDeleting() bool     { return s.busyWith(IntentDelete) }

// Result es el ResultEnvelope devuelto por las acciones del panel.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Failed reporta si el envelope debe clasificarse como error.
func (r Result) Failed() bool { return r.Error != "" || !r.Success }

// =================================================================================
// EVENTOS
// =================================================================================

// Event es una entrada de Transition.
type Event interface{ event() }

// Submitted: se invocó un entry point.
type Submitted struct{ Intent Intent }

// Completed: el transporte devolvió un envelope.
type Completed struct{ Result Result }

// TransportFailed: el transporte falló sin envelope.
type TransportFailed struct{ Err error }

// MessageCleared: la presentación descartó el mensaje.
type MessageCleared struct{}

func (Submitted) event()       {}
func (Completed) event()       {}
func (TransportFailed) event() {}
func (MessageCleared) event()  {}

// =================================================================================
// EFECTOS
// =================================================================================

// Effect es una acción que el Tracker ejecuta fuera del lock, después de la transición.
type Effect interface{ effect() }

// Navigate pide navegar a Path (Replace = reemplazar la entrada del historial).
type Navigate struct {
	Path    string
	Replace bool
}

// InvokeSuccessCallback pide invocar (una vez) el callback de éxito registrado.
type InvokeSuccessCallback struct{}

func (Navigate) effect()              {}
func (InvokeSuccessCallback) effect() {}

// Transition calcula el próximo estado y los efectos a despachar. No tiene efectos
// laterales.
//
// Un Submitted con una submission en curso, o una finalización sin intent activo,
// dejan el estado intacto.
func Transition(page Page, s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Submitted:
		if s.Phase == PhaseSubmitting || e.Intent == IntentNone {
			return s, nil
		}
		return State{ActiveIntent: e.Intent, Phase: PhaseSubmitting}, nil

	case Completed:
		if s.ActiveIntent == IntentNone {
			return s, nil
		}
		if e.Result.Failed() {
			msg := e.Result.Error
			if msg == "" {
				msg = "Unknown error occurred"
			}
			return State{Phase: PhaseIdle, Status: StatusError, Message: msg}, nil
		}
		next := State{Phase: PhaseIdle, Status: StatusSuccess, Message: successMessages[s.ActiveIntent]}
		return next, successEffects(page, s.ActiveIntent)

	case TransportFailed:
		if s.ActiveIntent == IntentNone {
			return s, nil
		}
		msg := "Unknown error occurred"
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return State{Phase: PhaseIdle, Status: StatusError, Message: msg}, nil

	case MessageCleared:
		s.Message = ""
		s.Status = StatusNone
		return s, nil
	}
	return s, nil
}

func successEffects(page Page, i Intent) []Effect {
	switch page {
	case PageDetail:
		if i == IntentDelete {
			return []Effect{Navigate{Path: CollectionPath, Replace: true}}
		}
	case PageList:
		if i == IntentCreate || i == IntentDelete {
			return []Effect{InvokeSuccessCallback{}}
		}
	}
	return nil
}
