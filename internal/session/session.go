// Package session keeps the per-browser UI state behind a cookie.
package session

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/page"
	"storefront/internal/repository"
	"storefront/internal/ui"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	cookieMaxAge = 30 * 24 * time.Hour
	saveTimeout  = 5 * time.Second
)

// Session is the state owned by one browser.
type Session struct {
	ID       uuid.UUID
	Cart     *cart.Store
	Menu     *ui.UserMenu
	Products *page.ProductPage
	Orders   *page.OrdersPage

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Deps are the collaborators every new session is wired to.
type Deps struct {
	Catalog    page.Catalog
	Orders     page.OrdersFetcher
	Carts      repository.CartRepository // nil disables cart persistence
	CookieName string

	// IdleTimeout is how long an unused session stays in memory. Zero
	// means the cookie lifetime.
	IdleTimeout time.Duration
}

// Manager owns the in-memory session table.
type Manager struct {
	deps   Deps
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager.
func NewManager(deps Deps, logger zerolog.Logger) *Manager {
	if deps.IdleTimeout <= 0 {
		deps.IdleTimeout = cookieMaxAge
	}
	return &Manager{
		deps:     deps,
		logger:   logger.With().Str("component", "session").Logger(),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.deps.CookieName
}

// Get returns a live session.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Open returns the session for id, creating it when it is not live, and
// marks it as used. A new session restores its cart from the cart
// repository when one is configured; the restore runs outside the table
// lock and the first session published for id wins.
func (m *Manager) Open(ctx context.Context, id uuid.UUID) *Session {
	if s, ok := m.Get(id); ok {
		s.touch(m.now())
		return s
	}

	created := m.newSession(ctx, id)
	created.touch(m.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.touch(m.now())
		return s
	}
	m.sessions[id] = created
	return created
}

// Sweep drops sessions unused for longer than the idle timeout and
// returns how many were dropped. A dropped session's cart is still in the
// cart repository when persistence is on.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.deps.IdleTimeout).UnixNano()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.lastSeen.Load() < cutoff {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Products.Unmount()
		s.Orders.Unmount()
	}
	if len(expired) > 0 {
		m.logger.Debug().Int("expired", len(expired)).Int("live", m.Len()).Msg("idle sessions dropped")
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx ends.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Resolve returns the session named by the request cookie, issuing a new
// cookie when it is missing or malformed.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(m.deps.CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return m.Open(r.Context(), id)
		}
	}

	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     m.deps.CookieName,
		Value:    id.String(),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	m.logger.Debug().Str("session_id", id.String()).Msg("new session issued")

	return m.Open(r.Context(), id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) newSession(ctx context.Context, id uuid.UUID) *Session {
	store := cart.NewStore()
	s := &Session{
		ID:       id,
		Cart:     store,
		Menu:     ui.NewUserMenu(),
		Products: page.NewProductPage(m.deps.Catalog, store, m.logger),
		Orders:   page.NewOrdersPage(m.deps.Orders, m.logger),
	}

	if m.deps.Carts == nil {
		return s
	}

	items, err := m.deps.Carts.Load(ctx, id)
	if err != nil {
		m.logger.Error().Err(err).Str("session_id", id.String()).Msg("failed to restore cart")
	} else if len(items) > 0 {
		store.Restore(items)
		m.logger.Debug().Str("session_id", id.String()).Int("lines", len(items)).Msg("cart restored")
	}

	store.Subscribe(m.persister(id))
	return s
}

func (m *Manager) persister(id uuid.UUID) cart.Listener {
	return func(items []model.CartLineItem) {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		if err := m.deps.Carts.Save(ctx, id, items); err != nil {
			m.logger.Error().Err(err).Str("session_id", id.String()).Msg("failed to save cart")
		}
	}
}

type sessionKey struct{}

// WithSession stores s on the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored on ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
