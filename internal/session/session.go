// Package session mirrors the credential managed by an external auth service.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Session struct {
	token string
	now   func() time.Time

	subscribers   map[uint64]func(authenticated bool)
	nextID        uint64
	authenticated bool

	mtx sync.Mutex
}

type Option func(session *Session)

// WithClock overrides the time source used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(session *Session) {
		session.now = now
	}
}

func New(token string, opts ...Option) *Session {
	session := &Session{
		token:       token,
		subscribers: map[uint64]func(bool){},
	}

	for _, opt := range opts {
		opt(session)
	}

	if session.now == nil {
		session.now = time.Now
	}

	session.authenticated = session.check(token)

	return session
}

func (session *Session) Token() string {
	session.mtx.Lock()
	defer session.mtx.Unlock()

	return session.token
}

// Authenticated reports whether the session carries a usable credential:
// a non-empty token that, if it's a JWT with an expiration time, hasn't expired yet.
func (session *Session) Authenticated() bool {
	return session.check(session.Token())
}

// SetToken replaces the credential and notifies the subscribers
// if the authentication state flipped as a result.
func (session *Session) SetToken(token string) {
	authenticated := session.check(token)

	session.mtx.Lock()
	session.token = token

	if authenticated == session.authenticated {
		session.mtx.Unlock()

		return
	}

	session.authenticated = authenticated

	callbacks := make([]func(bool), 0, len(session.subscribers))
	for _, callback := range session.subscribers {
		callbacks = append(callbacks, callback)
	}
	session.mtx.Unlock()

	for _, callback := range callbacks {
		callback(authenticated)
	}
}

func (session *Session) Clear() {
	session.SetToken("")
}

// Subscribe registers a callback that is invoked every time the session
// becomes authenticated or stops being one.
func (session *Session) Subscribe(fn func(authenticated bool)) func() {
	session.mtx.Lock()
	defer session.mtx.Unlock()

	id := session.nextID
	session.nextID++
	session.subscribers[id] = fn

	var once sync.Once

	return func() {
		once.Do(func() {
			session.mtx.Lock()
			delete(session.subscribers, id)
			session.mtx.Unlock()
		})
	}
}

func (session *Session) check(token string) bool {
	if token == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}

	// Opaque tokens can't be inspected, so their validity is up to the backend
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}

	if claims.ExpiresAt == nil {
		return true
	}

	return session.now().Before(claims.ExpiresAt.Time)
}
