package tracker

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"go.uber.org/zap"
)

// ErrSubmissionInFlight se devuelve al invocar un entry point con otra submission en curso.
var ErrSubmissionInFlight = errors.New("tracker: submission already in flight")

// Submission es el SubmissionEnvelope: intent + campos del formulario, dirigido a Path.
type Submission struct {
	Path   string
	Intent Intent
	Fields url.Values
}

// Transport entrega una Submission a la acción del panel y devuelve el envelope.
// Un error significa que no hubo envelope (red, respuesta ilegible).
type Transport interface {
	Submit(ctx context.Context, sub Submission) (Result, error)
}

// Navigator recibe los pedidos de navegación del tracker.
type Navigator interface {
	Navigate(path string, replace bool)
}

// NavigatorFunc adapta una función a Navigator.
type NavigatorFunc func(path string, replace bool)

func (f NavigatorFunc) Navigate(path string, replace bool) { f(path, replace) }

type Option func(*Tracker)

// WithNavigator configura el destino de los efectos Navigate.
func WithNavigator(n Navigator) Option { return func(t *Tracker) { t.nav = n } }

// WithLogger reemplaza el logger (por defecto logger.L()).
func WithLogger(l *zap.Logger) Option { return func(t *Tracker) { t.log = l } }

// Tracker es el coordinador de mutaciones de una página. Seguro para uso concurrente.
type Tracker struct {
	page      Page
	path      string
	transport Transport
	nav       Navigator
	log       *zap.Logger

	mu        sync.Mutex
	state     State
	onSuccess func()
	listeners []listener
	nextID    int
	done      chan struct{}

	// Entregas pendientes (listeners + efectos), en el orden en que se aplicaron
	// las transiciones. Solo un goroutine drena a la vez.
	pending  []delivery
	draining bool
}

// delivery es lo que una transición deja para después de soltar el lock.
type delivery struct {
	prev, next State
	effects    []Effect
	cb         func()
	listeners  []func(State)
	done       chan struct{} // se cierra al vaciarse la cola
}

type listener struct {
	id int
	fn func(State)
}

func newTracker(page Page, path string, tr Transport, opts ...Option) *Tracker {
	t := &Tracker{
		page:      page,
		path:      path,
		transport: tr,
		state:     State{Phase: PhaseIdle, Status: StatusIdle},
	}
	for _, o := range opts {
		o(t)
	}
	if t.log == nil {
		t.log = logger.L()
	}
	t.log = t.log.With(logger.Component("tracker"), logger.String("page", page.String()))
	return t
}

// State devuelve un snapshot del estado actual.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe registra fn para ser llamada con cada nuevo estado. Devuelve la función
// para desuscribirse.
func (t *Tracker) Subscribe(fn func(State)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners = append(t.listeners, listener{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			for i, l := range t.listeners {
				if l.id == id {
					t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
					break
				}
			}
			t.mu.Unlock()
		})
	}
}

// Wait bloquea hasta que la submission en curso (si hay) termine de procesarse,
// efectos incluidos.
func (t *Tracker) Wait(ctx context.Context) error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClearMessage descarta el mensaje visible sin tocar el intent activo. Llamado desde
// un listener, la notificación se encola y llega cuando ese listener retorna.
func (t *Tracker) ClearMessage() {
	t.apply(MessageCleared{}, nil)
}

func (t *Tracker) setSuccessCallback(fn func()) {
	t.mu.Lock()
	t.onSuccess = fn
	t.mu.Unlock()
}

// dispatch inicia una submission. true significa "despachada", no "exitosa": el
// resultado se observa vía State/Subscribe.
func (t *Tracker) dispatch(ctx context.Context, intent Intent, fields url.Values) (bool, error) {
	t.mu.Lock()
	if t.state.Phase == PhaseSubmitting {
		active := t.state.ActiveIntent
		t.mu.Unlock()
		t.log.Warn("submission rejected", logger.Intent(string(intent)), logger.String("active_intent", string(active)))
		return false, ErrSubmissionInFlight
	}
	prev := t.state
	next, _ := Transition(t.page, prev, Submitted{Intent: intent})
	t.state = next
	done := make(chan struct{})
	t.done = done
	drain := t.enqueueLocked(delivery{prev: prev, next: next, listeners: t.snapshotListeners()})
	t.mu.Unlock()

	t.log.Debug("submission dispatched", logger.Intent(string(intent)), logger.Phase(next.Phase.String()), logger.Path(t.path))

	sub := Submission{Path: t.path, Intent: intent, Fields: fields}
	go func() {
		res, err := t.transport.Submit(ctx, sub)
		if err != nil {
			t.log.Warn("submission failed", logger.Intent(string(intent)), logger.Err(err))
			t.apply(TransportFailed{Err: err}, done)
			return
		}
		t.apply(Completed{Result: res}, done)
	}()

	if drain {
		t.drain()
	}
	return true, nil
}

// apply transiciona el estado bajo lock y encola la entrega. done (opcional) se
// cierra cuando la cola queda vacía: esta entrega y las encoladas durante ella.
func (t *Tracker) apply(ev Event, done chan struct{}) {
	t.mu.Lock()
	prev := t.state
	next, effects := Transition(t.page, prev, ev)
	t.state = next
	var cb func()
	for _, e := range effects {
		if _, ok := e.(InvokeSuccessCallback); ok {
			cb, t.onSuccess = t.onSuccess, nil
		}
	}
	drain := t.enqueueLocked(delivery{
		prev:      prev,
		next:      next,
		effects:   effects,
		cb:        cb,
		listeners: t.snapshotListeners(),
		done:      done,
	})
	t.mu.Unlock()

	if drain {
		t.drain()
	}
}

// enqueueLocked agrega d a la cola. Devuelve true si el caller debe drenarla.
// Requiere t.mu.
func (t *Tracker) enqueueLocked(d delivery) bool {
	t.pending = append(t.pending, d)
	if t.draining {
		return false
	}
	t.draining = true
	return true
}

// drain entrega la cola en orden hasta vaciarla. Las transiciones aplicadas mientras
// tanto (incluso desde un listener) se encolan y se entregan en este mismo loop.
func (t *Tracker) drain() {
	var finished []chan struct{}
	defer func() {
		rec := recover()
		if rec != nil {
			t.mu.Lock()
			t.draining = false
			t.mu.Unlock()
		}
		for _, ch := range finished {
			close(ch)
		}
		if rec != nil {
			panic(rec)
		}
	}()
	for {
		t.mu.Lock()
		if len(t.pending) == 0 {
			t.pending = nil
			t.draining = false
			t.mu.Unlock()
			return
		}
		d := t.pending[0]
		t.pending = t.pending[1:]
		t.mu.Unlock()

		if d.done != nil {
			finished = append(finished, d.done)
		}
		t.deliver(d)
	}
}

func (t *Tracker) deliver(d delivery) {
	if d.prev == d.next && len(d.effects) == 0 {
		return
	}
	if d.prev.Phase == PhaseSubmitting && d.next.Phase == PhaseIdle {
		t.log.Info("submission settled",
			logger.Intent(string(d.prev.ActiveIntent)),
			logger.String("status", string(d.next.Status)),
			logger.String("message", d.next.Message))
	}
	notify(d.listeners, d.next)

	for _, e := range d.effects {
		switch e := e.(type) {
		case Navigate:
			if t.nav != nil {
				t.nav.Navigate(e.Path, e.Replace)
			}
		case InvokeSuccessCallback:
			if d.cb != nil {
				d.cb()
			}
		}
	}
}

func (t *Tracker) snapshotListeners() []func(State) {
	out := make([]func(State), 0, len(t.listeners))
	for _, l := range t.listeners {
		out = append(out, l.fn)
	}
	return out
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}
