package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const maxSessions = 10000

type session struct {
	userID    string
	expiresAt time.Time
}

// SessionStore keeps bearer tokens in memory. Entries expire after ttl and the
// least recently used session is dropped once maxSessions is reached.
type SessionStore struct {
	ttl      time.Duration
	sessions *expirable.LRU[string, session]
	now      func() time.Time
}

// NewSessionStore creates an in-memory session store
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: expirable.NewLRU[string, session](maxSessions, nil, ttl),
		now:      time.Now,
	}
}

// Create issues a new token for userID
func (s *SessionStore) Create(userID string) (string, time.Time, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	expiresAt := s.now().Add(s.ttl)

	s.sessions.Add(token, session{userID: userID, expiresAt: expiresAt})
	return token, expiresAt, nil
}

// Lookup resolves a token to its user id
func (s *SessionStore) Lookup(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	sess, ok := s.sessions.Get(token)
	if !ok || !s.now().Before(sess.expiresAt) {
		return "", false
	}
	return sess.userID, true
}

// Revoke forgets token
func (s *SessionStore) Revoke(token string) {
	s.sessions.Remove(token)
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	return s.sessions.Len()
}
