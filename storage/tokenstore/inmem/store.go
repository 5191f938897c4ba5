package inmem

import (
	"context"
	"sync"

	"github.com/zugate/teacherdash/core/session"
)

type store struct {
	mu    sync.RWMutex
	token string
}

var _ session.TokenStore = (*store)(nil)

// NewTokenStore returns a process-local TokenStore; the token does not survive a restart.
func NewTokenStore() session.TokenStore {
	return &store{}
}

func (s *store) Get(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", session.ErrNoToken
	}
	return s.token, nil
}

func (s *store) Set(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
