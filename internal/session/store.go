package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/kv"
)

const tokenKey = "token"

// Store es la única fuente de verdad sobre quién está logueado y la
// credencial que autoriza las llamadas a la API.
//
// El token sobrevive reinicios (almacén persistente); el usuario no se
// persiste y se vuelve a pedir al servidor en cada inicialización.
// Ante operaciones en vuelo superpuestas gana la última en completarse:
// cada escritura se aplica atómicamente bajo el mutex al completar la
// llamada, y una llamada cancelada nunca aplica su escritura.
type Store struct {
	logger *zap.Logger
	api    AuthAPI
	local  kv.Store
	bus    *Broadcaster

	mu            sync.Mutex
	token         string
	user          *domain.User
	authenticated bool

	settleOnce sync.Once
	settled    chan struct{}
}

// NewStore construye el Session Store con la credencial persistida (si
// existe). El estado arranca sin verificar: Init o CheckAuth lo
// resuelven contra el servidor.
func NewStore(logger *zap.Logger, api AuthAPI, local kv.Store, bus *Broadcaster) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = NewBroadcaster()
	}
	s := &Store{
		logger:  logger,
		api:     api,
		local:   local,
		bus:     bus,
		settled: make(chan struct{}),
	}
	if local != nil {
		if token, err := local.Get(tokenKey); err == nil {
			s.token = token
		} else if !errors.Is(err, kv.ErrNotFound) {
			logger.Warn("read persisted token failed", zap.Error(err))
		}
	}
	return s
}

// Broadcaster expone el bus de transiciones para que la UI se suscriba.
func (s *Store) Broadcaster() *Broadcaster {
	return s.bus
}

// Init resuelve la sesión inicial: verifica el token persistido contra
// el servidor, o marca la sesión como resuelta si no hay token.
func (s *Store) Init(ctx context.Context) bool {
	return s.CheckAuth(ctx)
}

// Login autentica contra el endpoint remoto. En éxito persiste el
// token, fija el usuario y emite SIGNED_IN. En fallo deja la sesión
// previa intacta.
func (s *Store) Login(ctx context.Context, email, password string) (domain.User, error) {
	creds, err := s.api.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}
	if applied := s.applySignIn(ctx, creds); !applied {
		return domain.User{}, ctx.Err()
	}
	return creds.User, nil
}

// Register tiene el mismo contrato que Login contra el endpoint de
// registro; el rol por omisión es customer.
func (s *Store) Register(ctx context.Context, email, password, fullName, role string) (domain.User, error) {
	if role == "" {
		role = domain.RoleCustomer
	}
	creds, err := s.api.Register(ctx, email, password, fullName, role)
	if err != nil {
		return domain.User{}, err
	}
	if applied := s.applySignIn(ctx, creds); !applied {
		return domain.User{}, ctx.Err()
	}
	return creds.User, nil
}

// CheckAuth verifica la credencial vigente contra el endpoint whoami.
// Sin token resuelve de inmediato sin llamada de red. Cualquier fallo
// del servidor degrada silenciosamente a logout; un contexto cancelado
// no aplica escritura alguna y reporta el estado vigente.
func (s *Store) CheckAuth(ctx context.Context) bool {
	defer s.settle()

	s.mu.Lock()
	token := s.token
	if token == "" {
		// Misma sección crítica que la lectura: un Login concurrente
		// que ya fijó token no debe ver su usuario borrado.
		s.user = nil
		s.authenticated = false
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	user, err := s.api.Profile(ctx, token)
	if ctx.Err() != nil {
		return s.IsAuthenticated()
	}
	if err != nil {
		s.logger.Debug("auth check failed, signing out", zap.Error(err))
		s.Logout()
		return false
	}

	s.mu.Lock()
	if ctx.Err() != nil {
		current := s.authenticated && s.user != nil
		s.mu.Unlock()
		return current
	}
	s.user = &user
	s.authenticated = true
	s.mu.Unlock()

	s.bus.Publish(Event{Kind: SignedIn, User: &user, Authenticated: true})
	return true
}

// Logout limpia token y usuario, borra la credencial persistida y
// emite SIGNED_OUT. Siempre tiene éxito y nunca llama a la red.
func (s *Store) Logout() {
	defer s.settle()

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.authenticated = false
	s.mu.Unlock()

	if s.local != nil {
		if err := s.local.Delete(tokenKey); err != nil {
			s.logger.Warn("remove persisted token failed", zap.Error(err))
		}
	}
	s.bus.Publish(Event{Kind: SignedOut, User: nil, Authenticated: false})
}

// RequireAuth espera a que la inicialización en vuelo se resuelva y
// devuelve el usuario autenticado, o ErrNotAuthenticated para que el
// caller cancele su flujo (el equivalente a un redirect a login).
func (s *Store) RequireAuth(ctx context.Context) (domain.User, error) {
	select {
	case <-s.settled:
	case <-ctx.Done():
		return domain.User{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated || s.user == nil {
		return domain.User{}, ErrNotAuthenticated
	}
	return *s.user, nil
}

// IsAuthenticated indica si hay una sesión verificada por el servidor.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated && s.user != nil
}

// Token devuelve la credencial bearer vigente, o cadena vacía.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User devuelve una copia del usuario actual, o nil.
func (s *Store) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// HasRole evalúa el rol del usuario actual, sin efectos.
func (s *Store) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated && s.user != nil && s.user.Role == role
}

func (s *Store) IsCustomer() bool { return s.HasRole(domain.RoleCustomer) }
func (s *Store) IsSeller() bool   { return s.HasRole(domain.RoleSeller) }
func (s *Store) IsAdmin() bool    { return s.HasRole(domain.RoleAdmin) }

// applySignIn aplica atomicamente el resultado exitoso de un login o
// register. Devuelve false sin escribir nada si el contexto de la
// operación ya fue cancelado.
func (s *Store) applySignIn(ctx context.Context, creds Credentials) bool {
	defer s.settle()

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	user := creds.User
	s.token = creds.Token
	s.user = &user
	s.authenticated = true
	s.mu.Unlock()

	if s.local != nil {
		if err := s.local.Set(tokenKey, creds.Token); err != nil {
			s.logger.Warn("persist token failed", zap.Error(err))
		}
	}
	s.bus.Publish(Event{Kind: SignedIn, User: &user, Authenticated: true})
	return true
}

// settle marca la inicialización como resuelta; RequireAuth deja de
// esperar a partir de aquí.
func (s *Store) settle() {
	s.settleOnce.Do(func() { close(s.settled) })
}
