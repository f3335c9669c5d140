package session

import (
	"sync"

	"homego/internal/domain"
)

// EventKind identifica una transición de sesión.
type EventKind string

const (
	SignedIn  EventKind = "SIGNED_IN"
	SignedOut EventKind = "SIGNED_OUT"
)

// Event es la notificación authStateChanged que reciben los observadores.
type Event struct {
	Kind          EventKind
	User          *domain.User
	Authenticated bool
}

// Listener procesa un evento de sesión. Los observadores deben ser
// independientes entre sí: el orden de entrega es el de registro pero
// no forma parte del contrato.
type Listener func(Event)

// Broadcaster desacopla el Session Store de los observadores de UI.
// La entrega es síncrona, en proceso y best-effort: no hay replay para
// observadores registrados después de publicado un evento.
type Broadcaster struct {
	mu        sync.Mutex
	listeners []Listener
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registra un observador.
func (b *Broadcaster) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Publish entrega el evento a todos los observadores registrados, en
// orden de registro.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
