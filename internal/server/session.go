package server

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionUserKey = "user_id"
	sessionCSRFKey = "csrf_token"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
)

// Flash categories used by the templates.
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashDanger  = "danger"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// sessionManager wraps a signed and encrypted cookie store for one site.
type sessionManager struct {
	store *sessions.CookieStore
	name  string
}

func newSessionManager(name, secret string) *sessionManager {
	hashKey := sha512.Sum512([]byte(secret))
	blockKey := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(hashKey[:], blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionManager{store: store, name: name}
}

// get returns the request's session. A cookie that fails to decode yields a
// fresh session.
func (m *sessionManager) get(r *http.Request) *sessions.Session {
	s, _ := m.store.Get(r, m.name)
	return s
}

func (m *sessionManager) save(w http.ResponseWriter, r *http.Request) error {
	return m.get(r).Save(r, w)
}

// principal returns the logged-in account id, or "".
func (m *sessionManager) principal(r *http.Request) string {
	id, _ := m.get(r).Values[sessionUserKey].(string)
	return id
}

func (m *sessionManager) login(w http.ResponseWriter, r *http.Request, id string) error {
	s := m.get(r)
	s.Values[sessionUserKey] = id
	s.Values[sessionCSRFKey] = uuid.NewString()
	return s.Save(r, w)
}

// logout forgets the account and retires the session's CSRF token.
func (m *sessionManager) logout(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	delete(s.Values, sessionUserKey)
	delete(s.Values, sessionCSRFKey)
	return s.Save(r, w)
}

func (m *sessionManager) flash(r *http.Request, category, msg string) {
	m.get(r).AddFlash(category + ":" + msg)
}

// takeFlashes removes and returns pending flashes. The caller must save the session.
func (m *sessionManager) takeFlashes(r *http.Request) []Flash {
	var out []Flash
	for _, f := range m.get(r).Flashes() {
		s, ok := f.(string)
		if !ok {
			continue
		}
		category, msg, found := strings.Cut(s, ":")
		if !found {
			category, msg = flashInfo, s
		}
		out = append(out, Flash{Category: category, Message: msg})
	}
	return out
}

// csrfToken returns the session's token, creating one if needed.
// The caller must save the session.
func (m *sessionManager) csrfToken(r *http.Request) string {
	s := m.get(r)
	token, _ := s.Values[sessionCSRFKey].(string)
	if token == "" {
		token = uuid.NewString()
		s.Values[sessionCSRFKey] = token
	}
	return token
}

// currentCSRF returns the session's token without creating one. Login rotates
// it and logout clears it, so it also names one login session.
func (m *sessionManager) currentCSRF(r *http.Request) string {
	token, _ := m.get(r).Values[sessionCSRFKey].(string)
	return token
}

// validCSRF reports whether the submitted form token matches the session.
func (m *sessionManager) validCSRF(r *http.Request) bool {
	return m.matchesCSRF(r, r.PostFormValue(csrfFormField))
}

// validCSRFHeader checks the X-CSRF-Token header sent by script requests.
func (m *sessionManager) validCSRFHeader(r *http.Request) bool {
	return m.matchesCSRF(r, r.Header.Get(csrfHeader))
}

// validCSRFQuery checks the csrf_token query parameter. WebSocket handshakes
// cannot carry custom headers from a browser.
func (m *sessionManager) validCSRFQuery(r *http.Request) bool {
	return m.matchesCSRF(r, r.URL.Query().Get(csrfFormField))
}

func (m *sessionManager) matchesCSRF(r *http.Request, got string) bool {
	want := m.currentCSRF(r)
	return want != "" && subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
