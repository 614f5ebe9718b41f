package api

import (
	"context"
	"fmt"
	"sync"
)

// Tokens is the JWT pair issued by the backend.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenStore persists tokens between runs.
type TokenStore interface {
	LoadTokens(ctx context.Context) (Tokens, error)
	SaveTokens(ctx context.Context, t Tokens) error
	ClearTokens(ctx context.Context) error
}

// Session holds the credentials used by a Client. It is safe for
// concurrent use.
type Session struct {
	store TokenStore

	mu        sync.Mutex
	tokens    Tokens
	onExpired func()
}

// NewSession restores any tokens held by store. A nil store keeps tokens in
// memory only.
func NewSession(ctx context.Context, store TokenStore) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}
	t, err := store.LoadTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	s.tokens = t
	return s, nil
}

func (s *Session) Tokens() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

func (s *Session) LoggedIn() bool {
	return s.Tokens().Access != ""
}

// OnExpired registers fn to run when a refresh is rejected and the session
// is cleared.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpired = fn
}

func (s *Session) set(ctx context.Context, t Tokens) error {
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.SaveTokens(ctx, t)
}

func (s *Session) setAccess(ctx context.Context, access string) error {
	s.mu.Lock()
	s.tokens.Access = access
	t := s.tokens
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.SaveTokens(ctx, t)
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.ClearTokens(ctx)
}

func (s *Session) expire(ctx context.Context) error {
	err := s.clear(ctx)
	s.mu.Lock()
	fn := s.onExpired
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return err
}
