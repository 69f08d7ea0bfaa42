package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionStore holds bearer tokens issued by login. Tokens expire after
// the configured TTL; expired entries are dropped lazily on lookup.
type sessionStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]time.Time // token -> expiry
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{ttl: ttl, m: make(map[string]time.Time)}
}

func (s *sessionStore) create() string {
	token := uuid.NewString()
	s.mu.Lock()
	s.m[token] = time.Now().Add(s.ttl)
	s.mu.Unlock()
	return token
}

func (s *sessionStore) valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.m[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.m, token)
		return false
	}
	return true
}

func (s *sessionStore) revoke(token string) {
	s.mu.Lock()
	delete(s.m, token)
	s.mu.Unlock()
}
