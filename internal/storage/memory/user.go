package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
)

type UserMemoryStorage struct {
	mu         sync.RWMutex
	users      map[string]*model.User // id -> user
	byUsername map[string]string      // username -> id
	validator  *validation.Validator
}

func NewUserMemoryStorage() *UserMemoryStorage {
	return &UserMemoryStorage{
		users:      make(map[string]*model.User),
		byUsername: make(map[string]string),
		validator:  validation.New(),
	}
}

func (s *UserMemoryStorage) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byUsername[username]
	if !exists {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return s.users[id].Clone(), nil
}

func (s *UserMemoryStorage) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[id]
	if !exists {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u.Clone(), nil
}

func (s *UserMemoryStorage) SaveUser(_ context.Context, u *model.User) error {
	if err := s.validator.Validate(u); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ownerID, taken := s.byUsername[u.Username]; taken && ownerID != u.ID {
		return fmt.Errorf("user %q: %w", u.Username, storage.ErrDuplicate)
	}

	if existing, exists := s.users[u.ID]; exists && existing.Username != u.Username {
		delete(s.byUsername, existing.Username)
	}

	s.users[u.ID] = u.Clone()
	s.byUsername[u.Username] = u.ID
	return nil
}
