package mocks

import (
	"context"
	"sync"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/author"
)

// MockAuthorStorage оборачивает настоящее хранилище и позволяет подменять ошибки записи.
type MockAuthorStorage struct {
	author.AuthorStorage

	mu          sync.Mutex
	saveErr     error
	deleteErr   error
	saveCalls   int
	deleteCalls int
}

func NewMockAuthorStorage(inner author.AuthorStorage) *MockAuthorStorage {
	return &MockAuthorStorage{AuthorStorage: inner}
}

// FailSave - все последующие SaveAuthor возвращают err (nil отключает).
func (m *MockAuthorStorage) FailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *MockAuthorStorage) FailDelete(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

func (m *MockAuthorStorage) SaveAuthor(ctx context.Context, a *model.Author) error {
	m.mu.Lock()
	m.saveCalls++
	err := m.saveErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.AuthorStorage.SaveAuthor(ctx, a)
}

func (m *MockAuthorStorage) DeleteAuthor(ctx context.Context, id string) error {
	m.mu.Lock()
	m.deleteCalls++
	err := m.deleteErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.AuthorStorage.DeleteAuthor(ctx, id)
}

// SaveCalls - вспомогательный метод для тестирования
func (m *MockAuthorStorage) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

func (m *MockAuthorStorage) DeleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCalls
}
