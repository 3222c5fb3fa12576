// Package session enforces the login-lifetime policy: a signed-in user
// must re-authenticate once the elapsed time since login exceeds a
// fixed budget, regardless of backend token validity.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Budget is the maximum elapsed time since login before forced
// re-authentication.
const Budget = 6 * time.Hour

// Backend is the slice of the auth collaborator the guard needs.
type Backend interface {
	// HasSession reports whether a live backend session exists.
	HasSession(ctx context.Context) (bool, error)
	// SignOut invalidates the backend session.
	SignOut(ctx context.Context) error
}

// ErrListenerActive is returned when a signed-out listener is already
// registered.
var ErrListenerActive = errors.New("signed-out listener already registered")

// Guard decides whether a previously authenticated session is still
// usable and owns the persisted login timestamps. A Guard built without
// stores (non-interactive context) answers false to every check and
// treats writes as no-ops.
type Guard struct {
	backend Backend
	durable Store
	scoped  Store
	now     func() time.Time

	mu       sync.Mutex
	listener func()
}

// NewGuard wires a policy guard over the given backend and storage
// tiers. Pass nil stores for non-interactive contexts.
func NewGuard(backend Backend, durable, scoped Store) *Guard {
	return &Guard{
		backend: backend,
		durable: durable,
		scoped:  scoped,
		now:     time.Now,
	}
}

func (g *Guard) interactive() bool {
	return g.durable != nil || g.scoped != nil
}

func (g *Guard) tier(persistent bool) Store {
	if persistent {
		if g.durable != nil {
			return g.durable
		}
		return NoopStore{}
	}
	if g.scoped != nil {
		return g.scoped
	}
	return NoopStore{}
}

// RecordLogin stores the current instant and the persistence choice in
// the matching storage tier.
func (g *Guard) RecordLogin(persistent bool) {
	if !g.interactive() {
		return
	}
	if err := g.tier(persistent).WriteLogin(g.now(), persistent); err != nil {
		slog.Warn("Failed to persist login instant", "error", err, "persistent", persistent)
	}
}

// Clear removes timestamp and flag state from both tiers. Idempotent.
func (g *Guard) Clear() {
	for _, s := range []Store{g.durable, g.scoped} {
		if s == nil {
			continue
		}
		if err := s.Clear(); err != nil {
			slog.Warn("Failed to clear session store", "error", err)
		}
	}
}

// readLogin finds the stored login instant, preferring the durable tier
// the way the remember flag directed the write.
func (g *Guard) readLogin() (time.Time, bool) {
	for _, s := range []Store{g.durable, g.scoped} {
		if s == nil {
			continue
		}
		if at, _, ok := s.ReadLogin(); ok {
			return at, true
		}
	}
	return time.Time{}, false
}

// Valid reports whether the session may still be used. It fails closed:
// no backend session, a backend error, or an over-budget login instant
// all yield false. Expiry and backend failure clear local state as a
// side effect. A backend session without a stored instant is valid
// (first-run grace).
func (g *Guard) Valid(ctx context.Context) bool {
	if !g.interactive() {
		return false
	}

	ok, err := g.backend.HasSession(ctx)
	if err != nil {
		slog.Warn("Backend session check failed", "error", err)
		g.Clear()
		return false
	}
	if !ok {
		// A stored login instant with no backend session means the
		// session was terminated externally (token revoked, remote
		// logout). Notify the listener once and clear.
		if _, found := g.readLogin(); found {
			g.HandleSignedOut()
		} else {
			g.Clear()
		}
		return false
	}

	loginAt, found := g.readLogin()
	if !found {
		return true
	}
	if g.now().Sub(loginAt) > Budget {
		g.Clear()
		return false
	}
	return true
}

// Enforce composes Valid with sign-out: when the session has expired it
// clears local state, invalidates the backend session, and returns
// false. The backend call is fire-and-forget; failure is logged only.
func (g *Guard) Enforce(ctx context.Context) bool {
	if g.Valid(ctx) {
		return true
	}
	g.Clear()
	if err := g.backend.SignOut(ctx); err != nil {
		slog.Warn("Backend sign-out failed", "error", err)
	}
	return false
}

// Subscription is the caller-owned handle for a signed-out listener.
type Subscription struct {
	guard *Guard
	once  sync.Once
}

// Cancel detaches the listener. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.guard.mu.Lock()
		s.guard.listener = nil
		s.guard.mu.Unlock()
	})
}

// SubscribeSignedOut registers fn to run when the backend reports the
// session was externally terminated. At most one listener is active at
// a time; registering while one is active returns ErrListenerActive.
func (g *Guard) SubscribeSignedOut(fn func()) (*Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listener != nil {
		return nil, ErrListenerActive
	}
	g.listener = fn
	return &Subscription{guard: g}, nil
}

// HandleSignedOut marks an external session termination: local state is
// cleared and the listener, if any, fires exactly once per event. Valid
// invokes it when the backend session vanished under a stored login
// instant; transports may also call it directly on token rejection.
func (g *Guard) HandleSignedOut() {
	g.Clear()
	g.mu.Lock()
	fn := g.listener
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}
