package session

import (
	"sync"

	"github.com/nissyi-gh/teamflow/internal/model"
)

// Holder owns the in-memory session for the running client. Login,
// register and logout are its only writers; request builders and views
// read it.
//
// Outbound requests take a lease with Acquire for their whole flight.
// Set and Clear wait for outstanding leases and block new ones while
// they run, so once Clear returns no request still carries the old
// token.
type Holder struct {
	flight sync.RWMutex

	mu      sync.Mutex
	current model.Session
}

// NewHolder returns a Holder with the given initial session.
func NewHolder(initial model.Session) *Holder {
	return &Holder{current: initial}
}

// Session returns a snapshot of the current session.
func (h *Holder) Session() model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// UserID returns the authenticated user's id, or 0.
func (h *Holder) UserID() int {
	return h.Session().UserID()
}

// Acquire returns the bearer token to use for one request ("" when
// unauthenticated) and a release function that must be called when the
// request has completed.
func (h *Holder) Acquire() (token string, release func()) {
	h.flight.RLock()
	sess := h.Session()
	if sess.Authenticated() {
		token = sess.Token
	}
	return token, h.flight.RUnlock
}

// Set replaces the session once in-flight requests have drained.
func (h *Holder) Set(sess model.Session) {
	h.flight.Lock()
	defer h.flight.Unlock()
	h.mu.Lock()
	h.current = sess
	h.mu.Unlock()
}

// Clear drops the session once in-flight requests have drained.
func (h *Holder) Clear() {
	h.Set(model.Session{})
}
