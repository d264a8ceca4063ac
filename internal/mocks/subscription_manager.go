package mocks

import (
	"sync"

	"github.com/VitaminP8/bookery/internal/subscription"
)

// MockSubscriptionManager доставляет события через настоящий менеджер
// и запоминает все публикации для проверок в тестах.
type MockSubscriptionManager struct {
	*subscription.SubscriptionManager

	mu            sync.Mutex
	notifications map[string][]any // topic -> payloads
}

func NewMockSubscriptionManager() *MockSubscriptionManager {
	return &MockSubscriptionManager{
		SubscriptionManager: subscription.NewSubscriptionManager(),
		notifications:       make(map[string][]any),
	}
}

func (m *MockSubscriptionManager) Publish(topic string, payload any) {
	m.mu.Lock()
	m.notifications[topic] = append(m.notifications[topic], payload)
	m.mu.Unlock()

	m.SubscriptionManager.Publish(topic, payload)
}

// GetNotifications - вспомогательный метод для тестирования,
// возвращает все опубликованные в топик события
func (m *MockSubscriptionManager) GetNotifications(topic string) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.notifications[topic]...)
}
