package subscription

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

const (
	TopicBookAdded    = "BOOK_ADDED"
	TopicAuthorEdited = "AUTHOR_EDITED"

	DefaultBuffer = 16
)

type Event struct {
	Topic   string
	Payload any
}

// Policy определяет, что делать, когда буфер подписчика заполнен.
// Publish не блокируется ни при одной из политик.
type Policy string

const (
	// DropNewest - новое событие для этого подписчика теряется.
	DropNewest Policy = "drop-newest"
	// DropOldest - из буфера выбрасывается самое старое событие.
	DropOldest Policy = "drop-oldest"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case DropNewest, DropOldest:
		return p, nil
	case "":
		return DropNewest, nil
	default:
		return "", fmt.Errorf("unknown event policy: %s", s)
	}
}

type subscriber struct {
	ch     chan Event
	topics []string
}

type SubscriptionManager struct {
	mu      sync.RWMutex
	subs    map[string][]*subscriber // topic -> подписчики
	buffer  int
	policy  Policy
	logger  *slog.Logger
	dropped atomic.Int64
}

type Option func(*SubscriptionManager)

func WithBuffer(n int) Option {
	return func(m *SubscriptionManager) {
		if n > 0 {
			m.buffer = n
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(m *SubscriptionManager) { m.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *SubscriptionManager) { m.logger = l }
}

func NewSubscriptionManager(opts ...Option) *SubscriptionManager {
	m := &SubscriptionManager{
		subs:   make(map[string][]*subscriber),
		buffer: DefaultBuffer,
		policy: DropNewest,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe регистрирует подписчика на топики. Подписчик получает только события,
// опубликованные после регистрации. cancel закрывает канал; повторный вызов безопасен.
func (m *SubscriptionManager) Subscribe(topics ...string) (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &subscriber{
		ch:     make(chan Event, m.buffer),
		topics: topics,
	}
	for _, topic := range topics {
		m.subs[topic] = append(m.subs[topic], sub)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			for _, topic := range sub.topics {
				subscribers := m.subs[topic]
				for i, s := range subscribers {
					if s == sub {
						m.subs[topic] = append(subscribers[:i:i], subscribers[i+1:]...)
						break
					}
				}
				if len(m.subs[topic]) == 0 {
					delete(m.subs, topic)
				}
			}
			close(sub.ch)
		})
	}

	return sub.ch, cancel
}

// Publish рассылает событие всем текущим подписчикам топика и никогда не блокируется.
func (m *SubscriptionManager) Publish(topic string, payload any) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload}
	for _, sub := range m.subs[topic] {
		if !m.deliver(sub, event) {
			m.dropped.Add(1)
			m.logger.Warn("dropped event for slow subscriber",
				slog.String("topic", topic),
				slog.String("policy", string(m.policy)))
		}
	}
}

func (m *SubscriptionManager) deliver(sub *subscriber, event Event) bool {
	select {
	case sub.ch <- event:
		return true
	default:
	}

	if m.policy != DropOldest {
		return false
	}

	// освобождаем место, выбросив самое старое событие
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- event:
	default:
	}
	return false
}

// Dropped - сколько доставок было потеряно из-за переполненных буферов.
func (m *SubscriptionManager) Dropped() int64 {
	return m.dropped.Load()
}

// Subscribers - число подписчиков топика.
func (m *SubscriptionManager) Subscribers(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[topic])
}
