// Package cart persists a visitor's cart lines inside their session.
package cart

import (
	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/session"
)

// DefaultSessionKey is the session key holding the cart lines.
const DefaultSessionKey = "cart"

// SessionStore is a raw persistence shim: it neither validates nor prices.
type SessionStore struct {
	key string
}

func NewSessionStore(key string) *SessionStore {
	if key == "" {
		key = DefaultSessionKey
	}
	return &SessionStore{key: key}
}

func (s *SessionStore) Load(sess *session.Session) (domain.CartLines, error) {
	var lines domain.CartLines
	if _, err := sess.Get(s.key, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Save writes the lines back and marks the session modified.
func (s *SessionStore) Save(sess *session.Session, lines domain.CartLines) error {
	if lines == nil {
		lines = domain.CartLines{}
	}
	return sess.Set(s.key, lines)
}

// Clear drops the stored lines; clearing an empty cart is a no-op.
func (s *SessionStore) Clear(sess *session.Session) {
	sess.Delete(s.key)
}
