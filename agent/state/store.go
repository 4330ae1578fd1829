package state

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrStateNotFound = errors.New("session state not found")
	ErrNilSession    = errors.New("session is nil")
	ErrInvalidUser   = errors.New("user id is empty")
)

// Store is the persistence contract used by the orchestrator.
type Store interface {
	Load(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStore keeps sessions in process memory. Load and Save work on deep
// copies so the caller never aliases stored state.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]*Session)}
}

func (s *MemoryStore) Load(ctx context.Context, userID string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[userID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, st *Session) error {
	if st == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(st.UserID) == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[st.UserID] = st.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}
