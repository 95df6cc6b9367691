package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/shared"
)

const (
	// DefaultCookieName is the cookie holding the session ID.
	DefaultCookieName = "discover_session"
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 24 * time.Hour
)

type ctxKey struct{}

type state struct {
	id      string
	session *models.Session
}

// ManagerOptions configures a [Manager].
type ManagerOptions struct {
	Store      Store
	TTL        time.Duration
	Secure     bool // sets the Secure cookie attribute
	CookieName string
	Logger     *log.Logger
}

// Manager binds sessions in a [Store] to requests through a cookie.
type Manager struct {
	store      Store
	ttl        time.Duration
	secure     bool
	cookieName string
	logger     *log.Logger
}

// NewManager creates a [Manager], defaulting to a [MemoryStore].
func NewManager(opts ManagerOptions) *Manager {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		store:      opts.Store,
		ttl:        opts.TTL,
		secure:     opts.Secure,
		cookieName: opts.CookieName,
		logger:     shared.WithLogger(opts.Logger, "component", "session"),
	}
}

// Middleware loads the session named by the request cookie into the request context.
//
// A missing, expired or unreadable session is replaced by a fresh anonymous one. Nothing is written
// back until [Manager.Save] is called.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := m.load(r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, st)))
	})
}

func (m *Manager) load(r *http.Request) *state {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return m.fresh()
	}

	sess, err := m.store.Load(r.Context(), c.Value)
	switch {
	case errors.Is(err, shared.ErrSessionNotFound):
		return m.fresh()
	case err != nil:
		m.logger.Warn("failed to load session", "error", err)
		return m.fresh()
	}

	return &state{id: c.Value, session: sess}
}

func (m *Manager) fresh() *state {
	return &state{id: shared.GenerateID(), session: &models.Session{}}
}

func stateFrom(ctx context.Context) *state {
	st, _ := ctx.Value(ctxKey{}).(*state)
	return st
}

// FromContext returns the request's session. Outside [Manager.Middleware] it returns an empty session
// that is never saved.
func FromContext(ctx context.Context) *models.Session {
	if st := stateFrom(ctx); st != nil {
		return st.session
	}
	return &models.Session{}
}

// Save writes the request's session to the store and sets the session cookie.
// It must be called before the response body is written.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request) error {
	st := stateFrom(r.Context())
	if st == nil {
		return fmt.Errorf("%w: no session in request context", shared.ErrSessionBackend)
	}

	if err := m.store.Save(r.Context(), st.id, st.session, m.ttl); err != nil {
		return err
	}

	http.SetCookie(w, m.cookie(st.id, int(m.ttl.Seconds())))
	return nil
}

// Renew moves the session to a new ID, discarding the old one. Call it when the user authenticates.
func (m *Manager) Renew(w http.ResponseWriter, r *http.Request) error {
	st := stateFrom(r.Context())
	if st == nil {
		return fmt.Errorf("%w: no session in request context", shared.ErrSessionBackend)
	}

	if err := m.store.Delete(r.Context(), st.id); err != nil {
		m.logger.Warn("failed to delete previous session", "error", err)
	}
	st.id = shared.GenerateID()
	return m.Save(w, r)
}

// Destroy clears the session, removes it from the store and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	st := stateFrom(r.Context())
	if st == nil {
		return nil
	}

	st.session.Clear()
	http.SetCookie(w, m.cookie("", -1))
	if err := m.store.Delete(r.Context(), st.id); err != nil {
		return err
	}
	st.id = shared.GenerateID()
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
