// Package session scopes creator-bias gating to a single process lifetime.
package session

import (
	"strings"

	"github.com/google/uuid"
)

const keySep = "::"

// Scope carries the token minted at process start. Gate keys recorded under
// another token are treated as unset, so a restart re-enables nudges.
type Scope struct {
	token string
}

// Option configures a Scope.
type Option func(*Scope)

// WithToken pins the scope token. Intended for tests and replays.
func WithToken(token string) Option {
	return func(s *Scope) {
		if token != "" {
			s.token = token
		}
	}
}

// New mints a fresh scope with a random token.
func New(opts ...Option) *Scope {
	s := &Scope{token: uuid.NewString()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the scope token.
func (s *Scope) Token() string { return s.token }

// GateKey returns the key marking a creator nudge for contentID in this scope.
func (s *Scope) GateKey(creatorID, contentID string) string {
	return creatorID + keySep + s.token + keySep + contentID
}

// Owns reports whether key was issued by this scope.
func (s *Scope) Owns(key string) bool {
	return strings.Contains(key, keySep+s.token+keySep)
}

// CreatorPrefix is the prefix shared by every gate key of creatorID,
// regardless of scope.
func CreatorPrefix(creatorID string) string {
	return creatorID + keySep
}
