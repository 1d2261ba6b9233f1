package auth

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and the
// DSN-less development mode of cmd/api, and applies the same guarded
// rotation semantics as the PostgreSQL store.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]*User         // by id
	byUsername map[string]string        // username -> id
	byEmail    map[string]string        // email -> id
	tokens     map[string]*RefreshToken // by raw token value
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		tokens:     make(map[string]*RefreshToken),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[u.Username]; ok {
		return ErrDuplicateUsername
	}
	if u.Email != "" {
		if _, ok := s.byEmail[u.Email]; ok {
			return ErrDuplicateUsername
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	s.byUsername[u.Username] = u.ID
	if u.Email != "" {
		s.byEmail[u.Email] = u.ID
	}
	return nil
}

func (s *MemoryStore) UserByID(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.snapshot(u), nil
}

func (s *MemoryStore) UserByUsername(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return s.snapshot(s.users[id]), nil
}

func (s *MemoryStore) UserByRefreshToken(_ context.Context, token string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	u, ok := s.users[tok.UserID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.snapshot(u), nil
}

func (s *MemoryStore) SaveLogin(_ context.Context, tok *RefreshToken, loginAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[tok.UserID]
	if !ok {
		return ErrNotFound
	}
	cp := *tok
	s.tokens[tok.Token] = &cp
	at := loginAt
	u.LastLoginAt = &at
	return nil
}

func (s *MemoryStore) RotateRefreshToken(_ context.Context, old string, successor *RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[old]
	if !ok || tok.RevokedAt != nil {
		return ErrNotFound
	}
	at := successor.CreatedAt
	tok.RevokedAt = &at
	tok.RevokedByIP = successor.CreatedByIP
	tok.ReplacedBy = successor.Token

	cp := *successor
	s.tokens[successor.Token] = &cp
	return nil
}

func (s *MemoryStore) RevokeRefreshToken(_ context.Context, value string, revokedAt time.Time, revokedByIP string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[value]
	if !ok || tok.RevokedAt != nil {
		return ErrNotFound
	}
	at := revokedAt
	tok.RevokedAt = &at
	tok.RevokedByIP = revokedByIP
	return nil
}

// snapshot copies the user and its token collection so callers never alias
// store-internal state. Callers hold the lock.
func (s *MemoryStore) snapshot(u *User) *User {
	cp := *u
	cp.RefreshTokens = nil
	for _, tok := range s.tokens {
		if tok.UserID == u.ID {
			cp.RefreshTokens = append(cp.RefreshTokens, *tok)
		}
	}
	return &cp
}
