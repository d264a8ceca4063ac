package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/author"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
)

type AuthorMemoryStorage struct {
	mu        sync.RWMutex
	authors   map[string]*model.Author
	byName    map[string]string // name -> id
	order     []string          // порядок вставки, как в документной БД
	validator *validation.Validator
}

func NewAuthorMemoryStorage() *AuthorMemoryStorage {
	return &AuthorMemoryStorage{
		authors:   make(map[string]*model.Author),
		byName:    make(map[string]string),
		validator: validation.New(),
	}
}

func (s *AuthorMemoryStorage) CountAuthors(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.authors), nil
}

func (s *AuthorMemoryStorage) FindAuthors(_ context.Context, filter author.Filter) ([]*model.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make([]*model.Author, 0, len(s.order))
	for _, id := range s.order {
		a := s.authors[id]
		if filter.Name != nil && a.Name != *filter.Name {
			continue
		}
		authors = append(authors, a.Clone())
	}

	return authors, nil
}

func (s *AuthorMemoryStorage) FindAuthorByName(_ context.Context, name string) (*model.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byName[name]
	if !exists {
		return nil, fmt.Errorf("author %q: %w", name, storage.ErrNotFound)
	}

	return s.authors[id].Clone(), nil
}

func (s *AuthorMemoryStorage) GetAuthorByID(_ context.Context, id string) (*model.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.authors[id]
	if !exists {
		return nil, fmt.Errorf("author %s: %w", id, storage.ErrNotFound)
	}

	return a.Clone(), nil
}

func (s *AuthorMemoryStorage) SaveAuthor(_ context.Context, a *model.Author) error {
	if err := s.validator.Validate(a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ownerID, taken := s.byName[a.Name]; taken && ownerID != a.ID {
		return fmt.Errorf("author %q: %w", a.Name, storage.ErrDuplicate)
	}

	existing, exists := s.authors[a.ID]
	if !exists {
		s.order = append(s.order, a.ID)
	} else if existing.Name != a.Name {
		delete(s.byName, existing.Name)
	}

	s.authors[a.ID] = a.Clone()
	s.byName[a.Name] = a.ID
	return nil
}

func (s *AuthorMemoryStorage) DeleteAuthor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.authors[id]
	if !exists {
		return fmt.Errorf("author %s: %w", id, storage.ErrNotFound)
	}

	delete(s.authors, id)
	delete(s.byName, a.Name)
	for i, orderedID := range s.order {
		if orderedID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
