// Package session holds the bearer token used by remote collaborators and
// the gate that admits views only while a token is held.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnauthenticated is returned by the gate when no session is held.
var ErrUnauthenticated = errors.New("not logged in")

// Session is an explicit, injectable session context. The zero value is an
// unauthenticated session.
type Session struct {
	mu         sync.RWMutex
	token      string
	onRejected []func()
}

func New(token string) *Session {
	return &Session{token: token}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// OnRejected registers fn to run when the remote side rejects the token.
func (s *Session) OnRejected(fn func()) {
	s.mu.Lock()
	s.onRejected = append(s.onRejected, fn)
	s.mu.Unlock()
}

// Reject clears the token and runs the rejection hooks. Called by
// transports on a 401.
func (s *Session) Reject() {
	s.mu.Lock()
	s.token = ""
	hooks := append([]func(){}, s.onRejected...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Authenticator is the part of a session the gate needs.
type Authenticator interface {
	IsAuthenticated() bool
}

// Gate admits access to views only while the session is authenticated.
// When open is true every view is admitted, which is how local backends
// without remote credentials run.
type Gate struct {
	session Authenticator
	open    bool
}

func NewGate(s Authenticator, open bool) *Gate {
	return &Gate{session: s, open: open}
}

// Admit returns nil when view may be shown.
func (g *Gate) Admit(view string) error {
	if g.open || (g.session != nil && g.session.IsAuthenticated()) {
		return nil
	}
	return fmt.Errorf("%w: cannot open %s", ErrUnauthenticated, view)
}
