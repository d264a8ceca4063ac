package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/book"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/validation"
)

type BookMemoryStorage struct {
	mu        sync.RWMutex
	books     map[string]*model.Book
	order     []string
	validator *validation.Validator
}

func NewBookMemoryStorage() *BookMemoryStorage {
	return &BookMemoryStorage{
		books:     make(map[string]*model.Book),
		validator: validation.New(),
	}
}

func (s *BookMemoryStorage) CountBooks(_ context.Context, filter book.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, b := range s.books {
		if filter.Match(b) {
			count++
		}
	}
	return count, nil
}

func (s *BookMemoryStorage) FindBooks(_ context.Context, filter book.Filter) ([]*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]*model.Book, 0)
	for _, id := range s.order {
		b := s.books[id]
		if filter.Match(b) {
			books = append(books, b.Clone())
		}
	}
	return books, nil
}

func (s *BookMemoryStorage) GetBookByID(_ context.Context, id string) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.books[id]
	if !exists {
		return nil, fmt.Errorf("book %s: %w", id, storage.ErrNotFound)
	}
	return b.Clone(), nil
}

func (s *BookMemoryStorage) SaveBook(_ context.Context, b *model.Book) error {
	if err := s.validator.Validate(b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[b.ID]; !exists {
		s.order = append(s.order, b.ID)
	}

	// связь хранится только идентификатором
	stored := b.Clone()
	stored.Author = nil
	stored.Genres = model.UniqueGenres(stored.Genres)
	s.books[b.ID] = stored
	return nil
}
