package mocks

import (
	"context"
	"sync"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/book"
)

// MockBookStorage оборачивает настоящее хранилище книг и позволяет подменять ошибку SaveBook.
type MockBookStorage struct {
	book.BookStorage

	mu        sync.Mutex
	saveErr   error
	saveCalls int
}

func NewMockBookStorage(inner book.BookStorage) *MockBookStorage {
	return &MockBookStorage{BookStorage: inner}
}

func (m *MockBookStorage) FailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *MockBookStorage) SaveBook(ctx context.Context, b *model.Book) error {
	m.mu.Lock()
	m.saveCalls++
	err := m.saveErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.BookStorage.SaveBook(ctx, b)
}

func (m *MockBookStorage) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}
