package mocks

import (
	"context"
	"sync"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/user"
)

// MockUserStorage реализует интерфейс user.UserStorage для тестирования:
// чтение идет в настоящее хранилище, ошибку SaveUser можно подменить.
type MockUserStorage struct {
	user.UserStorage

	mu          sync.Mutex
	saveErr     error
	lookupCalls int
}

func NewMockUserStorage(inner user.UserStorage) *MockUserStorage {
	return &MockUserStorage{UserStorage: inner}
}

func (m *MockUserStorage) FailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *MockUserStorage) SaveUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	err := m.saveErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.UserStorage.SaveUser(ctx, u)
}

func (m *MockUserStorage) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	m.lookupCalls++
	m.mu.Unlock()
	return m.UserStorage.FindUserByUsername(ctx, username)
}

func (m *MockUserStorage) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	m.lookupCalls++
	m.mu.Unlock()
	return m.UserStorage.GetUserByID(ctx, id)
}

// LookupCalls - сколько раз резолверы обращались к хранилищу за пользователем
func (m *MockUserStorage) LookupCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupCalls
}
