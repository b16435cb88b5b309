package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
)

const (
	cookieName  = "lime-session"
	cookieIDKey = "sid"
)

// PortLoader supplies the reference table copied into new sessions
type PortLoader func(ctx context.Context) ([]models.ReferencePort, error)

// Manager ties the browser cookie to a server-side Session
type Manager struct {
	gate    *Gate
	store   Store
	cookies *sessions.CookieStore
	ports   PortLoader
}

// NewManager creates a manager. key signs the cookie; ttl bounds its lifetime.
func NewManager(gate *Gate, store Store, key []byte, ttl time.Duration, ports PortLoader) *Manager {
	cookies := sessions.NewCookieStore(key)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	return &Manager{gate: gate, store: store, cookies: cookies, ports: ports}
}

// GenerateKey returns a random 32-byte cookie signing key
func GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating session key: %w", err)
	}
	return key, nil
}

// Load returns the caller's session, starting a new one when the cookie is
// missing, tampered with, or points at an expired session.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	cookie, err := m.cookies.Get(r, cookieName)
	if err != nil {
		// Bad signature: Get still returns a fresh session to overwrite it
		log.WithError(err).Debug("Discarding unreadable session cookie")
	}

	if id, ok := cookie.Values[cookieIDKey].(string); ok && id != "" {
		s, err := m.store.Get(r.Context(), id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}

	ports, err := m.ports(r.Context())
	if err != nil {
		return nil, fmt.Errorf("loading reference ports for session: %w", err)
	}
	s := NewSession(ports)
	if err := m.store.Save(r.Context(), s); err != nil {
		return nil, err
	}

	cookie.Values[cookieIDKey] = s.ID
	if err := cookie.Save(r, w); err != nil {
		return nil, fmt.Errorf("writing session cookie: %w", err)
	}
	log.WithField("session", s.ID).Debug("Started session")
	return s, nil
}

// Login checks input against the gate. On success the session is marked
// authenticated and moved to a fresh ID, so an ID issued before login is
// never authenticated. On failure it is left unchanged and false is returned.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, s *Session, input string) (bool, error) {
	if !m.gate.Check(input) {
		log.WithField("session", s.ID).Warn("Rejected login attempt")
		return false, nil
	}

	oldID := s.ID
	s.ID = uuid.NewString()
	s.Authenticated = true
	if err := m.store.Save(r.Context(), s); err != nil {
		s.ID, s.Authenticated = oldID, false
		return false, err
	}
	if err := m.store.Delete(r.Context(), oldID); err != nil {
		log.WithError(err).WithField("session", oldID).Warn("Dropping pre-login session")
	}

	cookie, _ := m.cookies.Get(r, cookieName)
	cookie.Values[cookieIDKey] = s.ID
	if err := cookie.Save(r, w); err != nil {
		return false, fmt.Errorf("writing session cookie: %w", err)
	}
	log.WithField("session", s.ID).Info("Session authenticated")
	return true, nil
}

// Logout destroys the session and expires the cookie
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := m.store.Delete(r.Context(), s.ID); err != nil {
		return err
	}
	cookie, _ := m.cookies.Get(r, cookieName)
	delete(cookie.Values, cookieIDKey)
	cookie.Options.MaxAge = -1
	return cookie.Save(r, w)
}
